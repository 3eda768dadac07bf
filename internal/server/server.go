// Package server is the HTTP surface of the watch command: health and
// readiness probes plus the Prometheus metrics endpoint.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/agentstation/airsync/pkg/constants"
	"github.com/agentstation/airsync/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	Host string
	Port int

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// StaleAfter marks the service unready when no sync has succeeded
	// for this long. Zero disables the check.
	StaleAfter time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         9090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		StaleAfter:   3 * constants.DefaultAutoSyncInterval,
	}
}

// RunTracker reports the outcome of the last sync run.
type RunTracker interface {
	LastRun() (time.Time, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	config    Config
	logger    *zerolog.Logger
	metrics   http.Handler
	runs      RunTracker
	version   string
	startTime time.Time
	now       func() time.Time
}

// New creates a server exposing metrics and the health of runs.
func New(cfg Config, logger *zerolog.Logger, metrics http.Handler, runs RunTracker, version string) *Server {
	return &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		runs:      runs,
		version:   version,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Handler returns the router with its middleware chain applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Logger(s.logger))
	r.Use(Recovery(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Serving health and metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapResource("serve", "http", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapResource("shutdown", "http", srv.Addr, err)
	}
	return nil
}
