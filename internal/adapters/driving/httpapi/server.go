// Package httpapi serves relations and documents over HTTP with chi.
// Watches are streamed as Server-Sent Events.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("httpapi: relation and document services are required")

// Config holds the services and optional handlers the API mounts.
type Config struct {
	Relations driving.RelationService
	Documents driving.DocumentService

	// CapTable is optional; /captable answers 501 without it.
	CapTable driving.CapTableService

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	router chi.Router
}

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Relations == nil || cfg.Documents == nil {
		return nil, ErrMissingService
	}

	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(tracing)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg.Metrics != nil {
		r.Handle("/metrics", s.cfg.Metrics)
	}
	if s.cfg.MCP != nil {
		r.Handle("/mcp", s.cfg.MCP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/entities", s.listEntities)

		r.Route("/relations/{entity}", func(r chi.Router) {
			r.Get("/", s.listRelations)
			r.Post("/", s.addRelation)
			r.Get("/watch", s.watchRelations)
			r.Get("/{id}", s.getRelation)
			r.Put("/{id}", s.setRelation)
			r.Patch("/{id}", s.updateRelation)
			r.Delete("/{id}", s.deleteRelation)
			r.Get("/{id}/watch", s.watchRelation)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.listDocuments)
			r.Post("/", s.addDocument)
			r.Get("/search", s.searchDocuments)
			r.Get("/actions", s.actionItems)
			r.Get("/{id}", s.getDocument)
			r.Patch("/{id}", s.updateDocument)
			r.Post("/{id}/recategorize", s.recategorizeDocument)
		})

		r.Get("/captable", s.capTable)
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	logger.Info("http api listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
