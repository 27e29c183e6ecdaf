// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mockdevice simulates the access point's two management endpoints with
// operator-controlled failures and latency.
package mockdevice

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ManuGH/netreset/internal/device"
	xglog "github.com/ManuGH/netreset/internal/log"
)

// PathConfig is the fault-injection side-channel. It is not part of the device contract.
const PathConfig = "/__mock"

// statusClientClosed marks a simulated request abandoned by the client during the delay.
const statusClientClosed = 499

// Invocation records one simulated device request.
type Invocation struct {
	Endpoint string
	Method   string
	Status   int
	At       time.Time
}

// Server is an http.Handler serving the simulated device.
type Server struct {
	store  *Store
	clock  clockwork.Clock
	logger zerolog.Logger
	router chi.Router

	mu    sync.Mutex
	calls []Invocation
}

// Option customises a Server.
type Option func(*Server)

// WithClock sets the time source used for the artificial delay.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates the simulated device. A nil store starts from DefaultConfig.
func NewServer(store *Store, opts ...Option) *Server {
	if store == nil {
		store = NewStore(DefaultConfig())
	}
	s := &Server{
		store:  store,
		clock:  clockwork.NewRealClock(),
		logger: xglog.WithComponent("mockdevice"),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(xglog.Middleware())
	r.Get(device.PathCountdown, s.handleTimer)
	r.HandleFunc(device.PathReset, s.handleReset)
	r.HandleFunc(PathConfig, s.handleConfig)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Store returns the configuration store backing the server.
func (s *Server) Store() *Store {
	return s.store
}

// Invocations returns a copy of every recorded device request, oldest first.
func (s *Server) Invocations() []Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Invocation, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many requests hit endpoint.
func (s *Server) CallCount(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Endpoint == endpoint {
			n++
		}
	}
	return n
}

// ClearInvocations forgets all recorded requests.
func (s *Server) ClearInvocations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) record(r *http.Request, endpoint string, status int) {
	s.mu.Lock()
	s.calls = append(s.calls, Invocation{
		Endpoint: endpoint,
		Method:   r.Method,
		Status:   status,
		At:       s.clock.Now(),
	})
	s.mu.Unlock()
	observeRequest(endpoint, status)
}

// delay waits for the configured latency or until ctx is done.
func (s *Server) delay(ctx context.Context, ms int) error {
	if ms <= 0 {
		return nil
	}
	timer := s.clock.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Get()
	if err := s.delay(r.Context(), cfg.DelayMs); err != nil {
		s.record(r, device.PathCountdown, statusClientClosed)
		return
	}

	if cfg.FailTimer {
		s.record(r, device.PathCountdown, http.StatusInternalServerError)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.record(r, device.PathCountdown, http.StatusOK)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(strconv.Itoa(cfg.TimerSeed)))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.record(r, device.PathReset, http.StatusMethodNotAllowed)
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := s.store.Get()
	if err := s.delay(r.Context(), cfg.DelayMs); err != nil {
		s.record(r, device.PathReset, statusClientClosed)
		return
	}

	if cfg.FailReset {
		s.record(r, device.PathReset, http.StatusInternalServerError)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.record(r, device.PathReset, http.StatusOK)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	patch, err := ParsePatch(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	cfg := s.store.Get()
	if !patch.Empty() {
		cfg = s.store.Update(patch)
		mockConfigUpdatesTotal.Inc()
		logger := xglog.WithContext(r.Context(), s.logger)
		logger.Info().
			Str(xglog.FieldEvent, "mock.config_updated").
			Bool("fail_reset", cfg.FailReset).
			Bool("fail_timer", cfg.FailTimer).
			Int("timer", cfg.TimerSeed).
			Int("delay_ms", cfg.DelayMs).
			Msg("mock configuration updated")
	}

	if prefersHTML(r) {
		renderConfigPage(w, cfg)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// prefersHTML reports whether the client asked for text/html ahead of JSON.
func prefersHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	html := strings.Index(accept, "text/html")
	if html < 0 {
		return false
	}
	jsonIdx := strings.Index(accept, "application/json")
	return jsonIdx < 0 || html < jsonIdx
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
