// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api serves the operator-facing HTTP surface: the current display state, the
// reset trigger, a websocket state stream, health probes and metrics.
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/netreset/internal/api/middleware"
	"github.com/ManuGH/netreset/internal/controller"
	"github.com/ManuGH/netreset/internal/health"
)

// Route paths.
const (
	PathState  = "/api/state"
	PathReset  = "/api/reset"
	PathStream = "/api/state/stream"
)

// Controller is the part of the reset controller the API drives.
type Controller interface {
	State() controller.DisplayState
	Reset(ctx context.Context) error
	Subscribe(buffer int) (<-chan controller.DisplayState, func())
}

// Config tunes the HTTP surface.
type Config struct {
	CORSOrigins    []string
	ResetRateLimit int    // per client IP and minute, 0 disables
	TracingService string // empty disables server spans
}

// Server wires the controller into a chi router.
type Server struct {
	cfg    Config
	ctrl   Controller
	health *health.Manager
	router chi.Router

	// streams are cancelled by Close; hijacked connections outlive http.Server.Shutdown.
	streamCtx    context.Context
	streamCancel context.CancelFunc
	streamMu     sync.Mutex // orders streams.Add against Close
	streamsDone  bool
	streams      sync.WaitGroup
}

// New creates the API server. A nil health manager gets a fresh one with a controller checker.
func New(cfg Config, ctrl Controller, hm *health.Manager) *Server {
	if hm == nil {
		hm = health.NewManager("")
		hm.RegisterChecker(health.NewControllerChecker(ctrl))
	}
	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		health: hm,
	}
	s.streamCtx, s.streamCancel = context.WithCancel(context.Background())
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        s.cfg.CORSOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Get(PathState, s.handleState)
	r.With(middleware.ResetRateLimit(s.cfg.ResetRateLimit)).Post(PathReset, s.handleReset)
	r.Get(PathStream, s.handleStream)
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close ends all open state streams and waits for their goroutines.
func (s *Server) Close() {
	s.streamMu.Lock()
	s.streamsDone = true
	s.streamMu.Unlock()

	s.streamCancel()
	s.streams.Wait()
}
