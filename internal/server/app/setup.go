// Package app contains the application setup for the stub backend.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/config"
	"github.com/abgdnv/storefront/internal/server/rest"
	"github.com/abgdnv/storefront/internal/server/store"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	Store  *store.Memory
	Logger *slog.Logger
}

func SetupDependencies(logger *slog.Logger, cfg *config.Config) (*Dependencies, error) {
	st := store.NewMemory()
	records, err := loadSeed(cfg.Catalog.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed records: %w", err)
	}
	st.Seed(records)

	return &Dependencies{
		Store:  st,
		Logger: logger,
	}, nil
}

// SetupHttpHandler initializes the HTTP routes for the stub backend.
// Used by tests to exercise the full router without a listening socket.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps, cfg)
	return mux
}

// wireRoutes sets up the HTTP routes for the stub backend.
func wireRoutes(mux *chi.Mux, deps *Dependencies, cfg *config.Config) {
	handler := rest.NewHandler(deps.Store, cfg.Catalog.PageSize, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the HTTP server of the stub backend.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps, cfg)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// loadSeed reads catalog records from the given JSON file. An empty path
// yields a small built-in sample set so the stub is usable out of the box.
func loadSeed(path string) ([]catalog.Record, error) {
	if path == "" {
		return sampleRecords(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []catalog.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
