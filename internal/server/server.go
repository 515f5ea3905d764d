// Package server exposes a completed run's output directory as a small
// read-only HTTP API: health, labeled events, the fitted parameter table,
// and the run manifest, plus Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"evstudy/internal/config"
	apierrors "evstudy/internal/errors"
)

// Server is the results API server
type Server struct {
	httpServer *http.Server
	store      *ResultsStore
	metrics    *Metrics
	logger     *slog.Logger
}

// New creates a results server over the given run output paths
func New(cfg config.ServerConfig, paths *config.Paths, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:   NewResultsStore(paths),
		metrics: NewMetrics(),
		logger:  logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}
	return s
}

// Router builds the route tree. Exposed separately so tests can drive the
// handlers through httptest without binding a port.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.instrument("health", s.handleHealth))
		r.Get("/events", s.instrument("events", s.handleEvents))
		r.Get("/params", s.instrument("params", s.handleParams))
		r.Get("/manifest", s.instrument("manifest", s.handleManifest))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// ListenAndServe runs the server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("results server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// instrument records request counts per route and status code
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)
		s.metrics.RequestsTotal.WithLabelValues(route, fmt.Sprintf("%d", ww.Status())).Inc()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !s.store.HasResults() {
		status = "no_results"
	}
	render.JSON(w, r, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.store.HasResults() {
		render.Render(w, r, apierrors.ErrResultsMissing)
		return
	}

	events, err := s.store.LabeledEvents()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read labeled events", "error", err)
		render.Render(w, r, apierrors.InternalError(err))
		return
	}

	s.metrics.EventsServed.Add(float64(len(events)))
	render.JSON(w, r, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := s.store.Params()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read parameter table", "error", err)
		render.Render(w, r, apierrors.ErrResultsMissing)
		return
	}

	render.JSON(w, r, map[string]any{
		"count":  len(params),
		"params": params,
	})
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ManifestBytes()
	if err != nil {
		render.Render(w, r, apierrors.ErrResultsMissing)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
