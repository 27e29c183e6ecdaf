// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mockdevice

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

// DefaultTimerSeed is the countdown a fresh mock reports.
const DefaultTimerSeed = 300

// ErrInvalidParam is returned by ParsePatch for a malformed integer parameter.
var ErrInvalidParam = errors.New("mockdevice: invalid parameter")

// Config is the fault-injection configuration read on every simulated request.
type Config struct {
	FailReset bool `json:"failReset"`
	FailTimer bool `json:"failTimer"`
	TimerSeed int  `json:"timer"`
	DelayMs   int  `json:"delay"`
}

// DefaultConfig returns the configuration a process starts with.
func DefaultConfig() Config {
	return Config{TimerSeed: DefaultTimerSeed}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	FailReset *bool
	FailTimer *bool
	TimerSeed *int
	DelayMs   *int
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.FailReset == nil && p.FailTimer == nil && p.TimerSeed == nil && p.DelayMs == nil
}

// ParsePatch reads failReset, failTimer, timer and delay from q.
// Booleans are true only for the literal "true". Integers must be non-negative; any
// malformed integer rejects the whole patch.
func ParsePatch(q url.Values) (Patch, error) {
	var p Patch
	if q.Has("failReset") {
		v := q.Get("failReset") == "true"
		p.FailReset = &v
	}
	if q.Has("failTimer") {
		v := q.Get("failTimer") == "true"
		p.FailTimer = &v
	}
	for _, f := range []struct {
		key string
		dst **int
	}{
		{"timer", &p.TimerSeed},
		{"delay", &p.DelayMs},
	} {
		if !q.Has(f.key) {
			continue
		}
		n, err := strconv.Atoi(q.Get(f.key))
		if err != nil || n < 0 {
			return Patch{}, fmt.Errorf("%w: %s=%q must be a non-negative integer", ErrInvalidParam, f.key, q.Get(f.key))
		}
		*f.dst = &n
	}
	return p, nil
}

// Store holds the process-wide mock configuration.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStore creates a store seeded with initial.
func NewStore(initial Config) *Store {
	return &Store{cfg: initial}
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update applies p and returns the resulting configuration.
func (s *Store) Update(p Patch) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.FailReset != nil {
		s.cfg.FailReset = *p.FailReset
	}
	if p.FailTimer != nil {
		s.cfg.FailTimer = *p.FailTimer
	}
	if p.TimerSeed != nil {
		s.cfg.TimerSeed = *p.TimerSeed
	}
	if p.DelayMs != nil {
		s.cfg.DelayMs = *p.DelayMs
	}
	return s.cfg
}
