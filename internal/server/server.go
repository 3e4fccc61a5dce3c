// Package server exposes the catalog service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyagen/iptvhub/internal/metrics"
	"github.com/voyagen/iptvhub/internal/models"
	"github.com/voyagen/iptvhub/internal/source"
)

// CatalogService is what the handlers need from service.Catalog.
type CatalogService interface {
	Get(ctx context.Context, req source.Request) (*models.CatalogResult, error)
	Diagnose(ctx context.Context, src models.SourceConfig) *source.Report

	CreateSource(ctx context.Context, s *models.SavedSource) (int64, error)
	ListSources(ctx context.Context) ([]models.SavedSource, error)
	GetSource(ctx context.Context, id int64) (*models.SavedSource, error)
	DeleteSource(ctx context.Context, id int64) error
	SourceCatalog(ctx context.Context, id int64, kind models.ResourceKind, itemID string) (*models.CatalogResult, error)
	ListRuns(ctx context.Context, sourceID int64, limit int) ([]models.CatalogRun, error)
	EnqueueRefresh(ctx context.Context, id int64, reason string) ([]models.CatalogRun, bool, error)
}

// Server holds dependencies for the HTTP API.
type Server struct {
	svc    CatalogService
	port   string
	logger *slog.Logger
	router *chi.Mux
}

// New creates a Server and registers routes.
func New(svc CatalogService, port string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, port: port, logger: logger, router: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(withLogging(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/series/{id}", s.handleSeriesDetail)
		r.Get("/{kind}", s.handleCatalog)
	})
	r.Post("/api/diagnose", s.handleDiagnose)

	r.Route("/api/sources", func(r chi.Router) {
		r.Get("/", s.handleListSources)
		r.Post("/", s.handleAddSource)
		r.Get("/{id}", s.handleGetSource)
		r.Delete("/{id}", s.handleDeleteSource)
		r.Get("/{id}/catalog/{kind}", s.handleSourceCatalog)
		r.Post("/{id}/refresh", s.handleRefreshSource)
		r.Get("/{id}/runs", s.handleListRuns)
	})

	r.Get("/api/docs", handleSwaggerUI)
	r.Get("/api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.port
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown", slog.Any("error", err))
		}
	}()

	s.logger.Info("listening", slog.String("addr", addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}
