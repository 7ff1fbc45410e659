// Package server exposes the share and export pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz                   liveness probe
//	PUT  /c                         store a snapshot, returns the share id
//	GET  /c/{id}                    stored snapshot as JSON
//	DELETE /c/{id}                  remove a share
//	GET  /c/{id}/export/{format}    generate an artifact from a share
//	GET  /export/{format}?canvas=   generate an artifact from a raw token
//
// Export reads accept the same compressed token the URL synchronizer
// writes, with the same semantics: a corrupt token is reported and nothing
// is half-applied.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hwaldner/cloudcanvas/pkg/pipeline"
	"github.com/hwaldner/cloudcanvas/pkg/share"
)

// Config tunes the HTTP server. The zero value uses defaults.
type Config struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string

	// ShareTTL is the lifetime of stored shares. Defaults to
	// [share.DefaultTTL].
	ShareTTL time.Duration

	// RequestTimeout bounds each request. Defaults to 30s.
	RequestTimeout time.Duration
}

// Server serves shares and exports over HTTP.
type Server struct {
	cfg    Config
	shares share.Store
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New creates a server. A nil runner gets a cacheless default; a nil
// logger falls back to the package default.
func New(shares share.Store, runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ShareTTL <= 0 {
		cfg.ShareTTL = share.DefaultTTL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		shares: shares,
		runner: runner,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Put("/c", s.handleCreateShare)
	r.Get("/c/{id}", s.handleGetShare)
	r.Delete("/c/{id}", s.handleDeleteShare)
	r.Get("/c/{id}/export/{format}", s.handleExportShare)
	r.Get("/export/{format}", s.handleExportToken)

	s.router = r
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests logs one line per request after it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
