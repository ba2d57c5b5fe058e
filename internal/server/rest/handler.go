// Package rest provides the HTTP handlers of the stub backend: the paged
// catalog query endpoint and the authoritative cart endpoints.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/server/store"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	store    *store.Memory
	pageSize int
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler backed by the given store. pageSize is
// the page size used when the request does not carry one.
func NewHandler(st *store.Memory, pageSize int, logger *slog.Logger) *Handler {
	return &Handler{
		store:    st,
		pageSize: pageSize,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the stub backend.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/catalog", h.Catalog)
	r.Group(func(r chi.Router) {
		r.Use(web.BearerAuthMiddleware)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.CartLines)
			r.Post("/add", h.AddLine)
			r.Put("/update/{lineId}", h.UpdateLine)
			r.Delete("/delete/{lineId}", h.RemoveLine)
			r.Delete("/clear", h.ClearLines)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// catalogResponse is the wire shape of GET /catalog.
type catalogResponse struct {
	Items      []catalog.Record `json:"items"`
	TotalCount int              `json:"totalCount"`
}

// Catalog evaluates the query described by the request parameters over the
// seeded records and returns one page of the result. Malformed numeric
// parameters fall back to their defaults instead of failing the request.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	query := r.URL.Query()
	filter := catalog.Filter{
		Categories: query["category"],
		Vendors:    query["vendor"],
		MinPrice:   web.QueryInt64Ptr(r, "minPrice"),
		MaxPrice:   web.QueryInt64Ptr(r, "maxPrice"),
		MinRating:  web.QueryFloat(r, "minRating", 0),
		InStock:    web.QueryBool(r, "inStock"),
		OnSale:     web.QueryBool(r, "onSale"),
	}
	sortKey := catalog.ParseSortKey(query.Get("sort"))
	page := web.QueryInt(r, "page", 0)
	pageSize := web.QueryInt(r, "pageSize", h.pageSize)

	results := catalog.Evaluate(h.store.Records(), filter, sortKey, query.Get("q"))
	items := catalog.Window(results, page, pageSize)

	mLogger.DebugContext(r.Context(), "Catalog query served",
		"page", page, "pageSize", pageSize, "total", len(results))
	web.RespondJSON(w, mLogger, http.StatusOK, catalogResponse{
		Items:      items,
		TotalCount: len(results),
	})
}

// addLineDto is the request body of POST /cart/add.
type addLineDto struct {
	RecordID string `json:"recordId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// AddLine creates a cart line for the record named in the request body.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := web.GetBearerToken(r.Context())
	if !ok {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Missing credential")
		return
	}

	var dto addLineDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateDto(w, r, mLogger, dto) {
		return
	}

	record, found := h.store.FindRecord(dto.RecordID)
	if !found {
		mLogger.WarnContext(r.Context(), "Record not found", "ID", dto.RecordID)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Record with ID %s not found", dto.RecordID))
		return
	}

	line := h.store.AddLine(token, record.ID, record.Name, record.EffectivePrice(), dto.Quantity)
	mLogger.InfoContext(r.Context(), "Cart line added", "lineID", line.LineID, "recordID", line.RecordID)
	web.RespondJSON(w, mLogger, http.StatusCreated, line)
}

// updateLineDto is the request body of PUT /cart/update/{lineId}.
type updateLineDto struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// UpdateLine sets the quantity of an existing cart line.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := web.GetBearerToken(r.Context())
	if !ok {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Missing credential")
		return
	}
	lineID := chi.URLParam(r, "lineId")

	var dto updateLineDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateDto(w, r, mLogger, dto) {
		return
	}

	line, err := h.store.UpdateLine(token, lineID, dto.Quantity)
	if err != nil {
		if errors.Is(err, store.ErrLineNotFound) {
			mLogger.WarnContext(r.Context(), "Cart line not found", "ID", lineID)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Cart line with ID %s not found", lineID))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating cart line", "ID", lineID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update cart line %s", lineID))
		return
	}
	mLogger.InfoContext(r.Context(), "Cart line updated", "lineID", lineID, "quantity", dto.Quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, line)
}

// RemoveLine deletes a cart line.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := web.GetBearerToken(r.Context())
	if !ok {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Missing credential")
		return
	}
	lineID := chi.URLParam(r, "lineId")

	if err := h.store.RemoveLine(token, lineID); err != nil {
		if errors.Is(err, store.ErrLineNotFound) {
			mLogger.WarnContext(r.Context(), "Cart line not found", "ID", lineID)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Cart line with ID %s not found", lineID))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error removing cart line", "ID", lineID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to remove cart line %s", lineID))
		return
	}
	mLogger.InfoContext(r.Context(), "Cart line removed", "lineID", lineID)
	w.WriteHeader(http.StatusNoContent)
}

// ClearLines drops the whole cart of the calling credential.
func (h *Handler) ClearLines(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := web.GetBearerToken(r.Context())
	if !ok {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Missing credential")
		return
	}

	h.store.ClearLines(token)
	mLogger.InfoContext(r.Context(), "Cart cleared")
	w.WriteHeader(http.StatusNoContent)
}

// CartLines returns the cart of the calling credential.
func (h *Handler) CartLines(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	token, ok := web.GetBearerToken(r.Context())
	if !ok {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Missing credential")
		return
	}

	web.RespondJSON(w, mLogger, http.StatusOK, h.store.Lines(token))
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// validateDto runs struct validation and writes the error response on
// failure. It reports whether the dto is valid.
func (h *Handler) validateDto(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dto any) bool {
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
