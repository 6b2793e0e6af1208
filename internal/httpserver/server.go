// Package httpserver serves the operational endpoints: liveness, readiness
// and Prometheus metrics.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fixembed/fixembed-bot/internal/logger"
)

// Deps are the values the handlers read.
type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	GoVersion string
	Metrics   http.Handler

	// Checks run on every /readyz request; the first failure marks the
	// bot not ready.
	Checks map[string]func(context.Context) error
}

type Server struct {
	http   *http.Server
	logger logger.Logger
}

// New builds the router and the listener.
func New(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	s := &http.Server{
		Addr:              addr,
		Handler:           Router(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return &Server{http: s, logger: d.Logger}
}

// Router returns the handler tree, separate from the listener for tests.
func Router(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Second))
	r.Use(logRequests(d.Logger))

	r.Get("/healthz", healthz(d))
	r.Get("/readyz", readyz(d))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	return r
}

// Start blocks until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Infof("ops server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("ops server shutting down")
	return s.http.Shutdown(ctx)
}
