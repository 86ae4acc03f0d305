// BioTeam AI - Agent Workflow Streaming and Activity Monitoring
// Copyright 2026 Jang S. (jang1563)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jang1563/bioteam-ai-sub001

package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jang1563/bioteam-ai-sub001/internal/activity"
	"github.com/jang1563/bioteam-ai-sub001/internal/config"
	"github.com/jang1563/bioteam-ai-sub001/internal/logging"
	"github.com/jang1563/bioteam-ai-sub001/internal/stream"
)

// pollRateLimit is the fixed per-IP limit for probes and read endpoints.
// The terminal viewer polls status and activity continuously and monitoring
// tools hit the probes every few seconds, so these need far more headroom
// than the configurable limit guarding the mutating endpoint.
const pollRateLimit = 1000

// StreamStatus is the view of the stream manager the ops endpoints read.
// Satisfied by *stream.Manager.
type StreamStatus interface {
	State() stream.State
	RetryCount() int
	LastEventAt() time.Time
	TransportName() string
}

// Server is the local operations HTTP server: health probes, connection
// status, the activity snapshot, and Prometheus metrics. It binds to
// loopback by default and is the surface the terminal viewer polls.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewServer assembles the ops server from its configuration and the two
// state holders the endpoints read.
func NewServer(cfg config.OpsConfig, status StreamStatus, store *activity.Store) *Server {
	h := newHandlers(status, store)

	s := &Server{
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logging.WithComponent("ops"),
	}
	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.routes(cfg, h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// routes builds the chi router: request ID with logging context, real IP,
// panic recovery, and CORS globally, then per-group rate limits.
func (s *Server) routes(cfg config.OpsConfig, h *handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	// Probes.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(pollRateLimit, time.Minute))
		r.Get("/healthz", h.handleHealthz)
		r.Get("/readyz", h.handleReadyz)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(prometheusMetrics)

		// Read endpoints polled by the viewer.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(pollRateLimit, time.Minute))
			r.Get("/status", h.handleStatus)
			r.Get("/activity", h.handleActivity)
		})

		// Mutating endpoints use the configured limit.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/activity/clear", h.handleActivityClear)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Handler exposes the assembled router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Serve runs the server as a supervised service: ListenAndServe on a
// goroutine, then wait for context cancellation or a server error. On
// cancellation the server drains connections gracefully within the
// configured shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info().Str("addr", s.http.Addr).Msg("ops server listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ops server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The original context is already cancelled; shutdown gets its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info().Msg("ops server shutting down")
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ops server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String names the service in supervisor logs.
func (s *Server) String() string {
	return "ops-server"
}
