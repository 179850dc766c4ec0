// Package api serves chart presets over HTTP.
//
// Routes:
//
//	GET  /healthz                          liveness and build version
//	GET  /v1/charts                        configured presets
//	POST /v1/charts/{name}/runs            run a preset, persist and return the run
//	GET  /v1/charts/{name}/focus?path=a/b  sunburst preset zoomed onto an arc
//	GET  /v1/runs?preset=&limit=           recent runs, newest first
//	GET  /v1/runs/{id}                     one run
//
// Errors are JSON objects carrying the structured error code; the HTTP status
// is derived from it.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/healthviz/pkg/config"
	"github.com/matzehuels/healthviz/pkg/pipeline"
	"github.com/matzehuels/healthviz/pkg/storage"
)

// DefaultRequestTimeout bounds a single request, including pipeline runs.
const DefaultRequestTimeout = 2 * time.Minute

// Server wires the pipeline runner and run store to HTTP routes.
type Server struct {
	runner  *pipeline.Runner
	store   storage.Store
	presets []config.Preset
	logger  *log.Logger
	router  chi.Router
}

// NewServer builds the router. A nil store keeps runs in memory.
func NewServer(runner *pipeline.Runner, store storage.Store, presets []config.Preset, logger *log.Logger) *Server {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:  runner,
		store:   store,
		presets: presets,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(DefaultRequestTimeout))
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/charts", s.handleListCharts)
		r.Post("/charts/{name}/runs", s.handleCreateRun)
		r.Get("/charts/{name}/focus", s.handleFocus)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Millisecond),
			"id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) preset(name string) (config.Preset, bool) {
	for _, p := range s.presets {
		if p.Name == name {
			return p, true
		}
	}
	return config.Preset{}, false
}
