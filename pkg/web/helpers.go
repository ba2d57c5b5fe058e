// Package web provides shared HTTP helpers and middleware.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// RespondJSON writes the payload as JSON with the given status code.
// A nil payload writes the status code only.
func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError writes an error message as a JSON object.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// QueryInt returns the named query parameter as an int. A missing or
// malformed value yields the fallback; malformed filter input is recovered,
// not rejected.
func QueryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// QueryInt64Ptr returns the named query parameter as an *int64, or nil when
// absent or malformed.
func QueryInt64Ptr(r *http.Request, key string) *int64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// QueryFloat returns the named query parameter as a float64, or the
// fallback when absent or malformed.
func QueryFloat(r *http.Request, key string, fallback float64) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// QueryBool reports whether the named query parameter is "true" or "1".
func QueryBool(r *http.Request, key string) bool {
	value := r.URL.Query().Get(key)
	return value == "true" || value == "1"
}
