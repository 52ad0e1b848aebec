// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyrecover.
//
// go-keyrecover is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jeremyhahn/go-keyrecover/internal/session"
	"github.com/jeremyhahn/go-keyrecover/pkg/health"
	"github.com/jeremyhahn/go-keyrecover/pkg/logging"
	"github.com/jeremyhahn/go-keyrecover/pkg/metrics"
	"github.com/jeremyhahn/go-keyrecover/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the REST API server.
type Server struct {
	server   *http.Server
	handlers *HandlerContext
	health   *health.Checker
	limiter  *ratelimit.Limiter
	logger   logging.Logger
	version  string

	tlsConfig   *tls.Config
	metricsPath string
}

// Config holds the REST server configuration.
type Config struct {
	// Address is the host:port to listen on (default: 127.0.0.1:8420)
	Address string

	// Sessions holds recovery sessions. Required.
	Sessions *session.Manager

	// MaxSessions is reported by the readiness check.
	MaxSessions int

	// Limiter throttles /api/v1 requests (optional)
	Limiter *ratelimit.Limiter

	// Health receives the server's readiness checks (optional)
	Health *health.Checker

	// MetricsPath serves Prometheus metrics when non-empty
	MetricsPath string

	// Version is reported by the health endpoints
	Version string

	// TLSConfig enables HTTPS when set
	TLSConfig *tls.Config

	Logger logging.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

// NewServer creates a new REST API server.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}

	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8420"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	checker := cfg.Health
	if checker == nil {
		checker = health.NewChecker()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(nil)
	}

	checker.Register("self_test", SelfTestCheck)
	checker.Register("sessions", SessionCapacityCheck(cfg.Sessions, cfg.MaxSessions))

	s := &Server{
		handlers:    NewHandlerContext(cfg.Sessions, log, cfg.MaxBodyBytes),
		health:      checker,
		limiter:     limiter,
		logger:      log,
		version:     cfg.Version,
		tlsConfig:   cfg.TLSConfig,
		metricsPath: cfg.MetricsPath,
	}

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.setupRouter(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		TLSConfig:         cfg.TLSConfig,
	}
	return s, nil
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(RequestIDMiddleware)
	r.Use(s.LoggingMiddleware())
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", s.LivenessHandler)
	r.Get("/health/ready", s.ReadinessHandler)
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ratelimit.Middleware(s.limiter, rateLimitRejected))

		r.Post("/sessions", s.handlers.CreateSessionHandler)
		r.Get("/sessions/{id}", s.handlers.GetSessionHandler)
		r.Delete("/sessions/{id}", s.handlers.DeleteSessionHandler)
		r.Post("/sessions/{id}/shares", s.handlers.AddShareHandler)
		r.Post("/sessions/{id}/reset", s.handlers.ResetSessionHandler)

		r.Post("/shares/inspect", s.handlers.InspectShareHandler)
		r.Post("/address", s.handlers.AddressHandler)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, fmt.Errorf("%w: no route for %s", ErrInvalidRequest, r.URL.Path), http.StatusNotFound)
	})
	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(l)
}

// Serve serves on l until Stop. It marks the server ready once serving.
func (s *Server) Serve(l net.Listener) error {
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
		l = tls.NewListener(l, s.tlsConfig)
	}
	s.logger.Info("starting server",
		logging.String("address", l.Addr().String()),
		logging.String("scheme", scheme))

	s.health.MarkStarted()
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST API server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")
	s.health.MarkStopping()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shutdown server", logging.Error(err))
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
