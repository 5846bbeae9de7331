// Package web provides the JSON HTTP API over the product store.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/web/middleware"
)

// Remote is the external system of record. Writes go there first when one
// is configured.
type Remote interface {
	List(ctx context.Context) ([]core.Product, error)
	Create(ctx context.Context, p core.Product) (core.Product, error)
	Update(ctx context.Context, id string, patch core.ProductPatch) (core.Product, error)
	Delete(ctx context.Context, id string) error
}

// Server is the HTTP server for the catalog API.
type Server struct {
	store   *core.Store
	limiter *core.ImportLimiter
	remote  Remote
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance. remote may be nil.
func NewServer(store *core.Store, limiter *core.ImportLimiter, remote Remote, cfg *config.Config) *Server {
	s := &Server{
		store:   store,
		limiter: limiter,
		remote:  remote,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Products
		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleCreateProduct)
		r.Post("/products/batch", s.handleCreateProducts)
		r.Post("/products/delete", s.handleDeleteProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Patch("/products/{id}", s.handleUpdateProduct)
		r.Delete("/products/{id}", s.handleDeleteProduct)
		r.Put("/products/{id}/fields/{key}", s.handleSetField)

		// Configuration overlays
		r.Get("/products/{id}/config", s.handleGetConfig)
		r.Put("/products/{id}/config", s.handleReplaceConfig)
		r.Put("/products/{id}/config/tabs", s.handleSetTabs)
		r.Put("/products/{id}/config/variations", s.handleSetVariations)
		r.Put("/products/{id}/config/template", s.handleSetActiveTemplate)
		r.Post("/products/{id}/config/apply-template", s.handleApplyTemplate)
		r.Put("/products/{id}/config/custom/{key}", s.handleSetCustomField)
		r.Get("/configs/orphans", s.handleOrphanConfigs)

		// Import / export
		r.Post("/import", s.handleImport)
		r.Post("/import/preview", s.handlePreview)
		r.Get("/export", s.handleExport)

		// Remote reconciliation
		r.Post("/sync/pull", s.handleSyncPull)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"products": s.store.Count(),
		"imports":  s.limiter.Status(),
		"remote":   s.remote != nil,
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
