// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package controller coordinates the device countdown with the one-shot reset action and
// exposes the result as a single DisplayState.
//
// Every external event (fetch resolved, tick fired, reset requested, reset resolved) is
// applied by one event-loop goroutine, so each transition is an indivisible step.
package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ManuGH/netreset/internal/countdown"
	"github.com/ManuGH/netreset/internal/device"
	xglog "github.com/ManuGH/netreset/internal/log"
)

type event interface{ isEvent() }

type fetchResult struct {
	seconds int
	err     error
}

type tickEvent struct {
	gen       uint64
	remaining int
}

type resetRequest struct {
	reply chan error
}

type resetResult struct {
	err error
}

func (fetchResult) isEvent()  {}
func (tickEvent) isEvent()    {}
func (resetRequest) isEvent() {}
func (resetResult) isEvent()  {}

// Controller owns the countdown and reset state for one device session.
type Controller struct {
	id        string
	gw        device.Gateway
	clock     clockwork.Clock
	countdown *countdown.Clock
	logger    zerolog.Logger

	events chan event
	done   chan struct{}

	// lifeMu guards ctx and cancel between Start and Close.
	lifeMu sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	calls  sync.WaitGroup

	started   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once

	// Owned by the event loop.
	state      State
	clockGen   uint64
	lastTickAt time.Time

	display  atomic.Pointer[DisplayState]
	snapshot atomic.Pointer[State]

	subMu   sync.Mutex
	subs    map[int]chan DisplayState
	nextSub int
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock sets the time source for the countdown. Tests pass a clockwork.FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a controller in the loading state. Nothing happens until Start.
func New(gw device.Gateway, opts ...Option) *Controller {
	c := &Controller{
		id:     uuid.New().String()[:8],
		gw:     gw,
		clock:  clockwork.NewRealClock(),
		logger: xglog.WithComponent("controller"),
		events: make(chan event),
		done:   make(chan struct{}),
		subs:   make(map[int]chan DisplayState),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str(xglog.FieldControllerID, c.id).Logger()
	c.countdown = countdown.New(c.clock)

	initial := Project(c.state)
	c.display.Store(&initial)
	snap := c.state
	c.snapshot.Store(&snap)
	return c
}

// Start launches the event loop and issues the single countdown fetch.
// Calling Start more than once has no further effect.
func (c *Controller) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	if c.cancel != nil {
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started.Store(true)
	go c.loop()

	c.calls.Add(1)
	go func() {
		defer c.calls.Done()
		seconds, err := c.gw.FetchCountdown(c.ctx)
		c.post(fetchResult{seconds: seconds, err: err})
	}()

	c.logger.Info().Str(xglog.FieldEvent, "controller.started").Msg("fetching device countdown")
	return nil
}

// Reset requests the one-shot reset action. It returns once the request has been applied
// to the state machine, not when the device has answered; observe State or Subscribe for
// the outcome. ErrResetInFlight, ErrAlreadyReset and ErrNotReady leave the state untouched.
func (c *Controller) Reset(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.started.Load() {
		return ErrNotReady
	}

	req := resetRequest{reply: make(chan error, 1)}
	select {
	case c.events <- req:
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// State returns the current display state.
func (c *Controller) State() DisplayState {
	return *c.display.Load()
}

// Snapshot returns a copy of the authoritative state.
func (c *Controller) Snapshot() State {
	return *c.snapshot.Load()
}

// Close stops the event loop, cancels outstanding gateway calls and the countdown, and
// closes all subscriber channels. It is safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.lifeMu.Lock()
		c.closed.Store(true)
		cancel := c.cancel
		c.lifeMu.Unlock()

		if cancel != nil {
			cancel()
			<-c.done
		}
		c.calls.Wait()
		c.countdown.Cancel()
		c.countdown.Wait()

		c.subMu.Lock()
		for id, ch := range c.subs {
			close(ch)
			delete(c.subs, id)
		}
		c.subMu.Unlock()

		c.logger.Debug().Str(xglog.FieldEvent, "controller.closed").Msg("controller closed")
	})
}

// post hands an event to the loop. It gives up once the loop has exited.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.countdown.Cancel()
			return
		case ev := <-c.events:
			c.apply(ev)
		}
	}
}

func (c *Controller) apply(ev event) {
	switch ev := ev.(type) {
	case fetchResult:
		c.onFetch(ev)
	case tickEvent:
		c.onTick(ev)
	case resetRequest:
		err := c.onResetRequest()
		c.publish()
		// The caller observes the new display state as soon as Reset returns.
		ev.reply <- err
		return
	case resetResult:
		c.onResetResult(ev)
	}
	c.publish()
}

func (c *Controller) onFetch(ev fetchResult) {
	if c.state.CountdownKnown || c.state.FetchFailed {
		return
	}
	if ev.err != nil {
		c.state.FetchFailed = true
		c.state.FetchCause = device.Cause(ev.err)
		c.logger.Error().
			Err(ev.err).
			Str(xglog.FieldEvent, "controller.fetch_failed").
			Msg("countdown fetch failed")
		return
	}

	seconds := ev.seconds
	if seconds < 0 {
		seconds = 0
	}
	c.state.CountdownKnown = true
	c.state.Countdown = seconds
	if seconds > 0 {
		c.startClock(seconds)
	}
}

func (c *Controller) onTick(ev tickEvent) {
	if ev.gen != c.clockGen {
		return
	}
	if c.state.Reset == ResetInFlight || c.state.Reset == ResetSucceeded {
		return
	}
	remaining := ev.remaining
	if remaining < 0 {
		remaining = 0
	}
	if remaining >= c.state.Countdown {
		return
	}
	c.state.Countdown = remaining
	c.lastTickAt = c.clock.Now()
}

func (c *Controller) onResetRequest() error {
	switch {
	case c.state.Reset == ResetInFlight:
		return ErrResetInFlight
	case c.state.Reset == ResetSucceeded:
		return ErrAlreadyReset
	case c.state.FetchFailed, !c.state.CountdownKnown:
		return ErrNotReady
	}

	c.state.Reset = ResetInFlight
	c.state.ResetCause = ""
	c.stopClock()

	c.calls.Add(1)
	go func() {
		defer c.calls.Done()
		err := c.gw.TriggerReset(c.ctx)
		c.post(resetResult{err: err})
	}()
	return nil
}

func (c *Controller) onResetResult(ev resetResult) {
	if c.state.Reset != ResetInFlight {
		return
	}
	if ev.err == nil {
		c.state.Reset = ResetSucceeded
		return
	}

	c.state.Reset = ResetFailed
	c.state.ResetCause = device.Cause(ev.err)
	c.logger.Warn().
		Err(ev.err).
		Str(xglog.FieldEvent, "controller.reset_failed").
		Msg("reset failed")
	c.resumeClock()
}

func (c *Controller) startClock(seconds int) {
	c.startClockAfter(seconds, countdown.TickInterval)
}

// startClockAfter runs the projection with the first tick due after first. lastTickAt is
// backdated so that it stays one TickInterval before the next due tick.
func (c *Controller) startClockAfter(seconds int, first time.Duration) {
	c.clockGen++
	gen := c.clockGen
	c.lastTickAt = c.clock.Now().Add(first - countdown.TickInterval)
	c.countdown.StartAfter(seconds, first, func(remaining int) {
		c.post(tickEvent{gen: gen, remaining: remaining})
	})
}

// stopClock cancels the countdown and invalidates ticks already on their way.
func (c *Controller) stopClock() {
	c.countdown.Cancel()
	c.clockGen++
}

// resumeClock restarts the local projection after a failed reset, charging the whole
// seconds that elapsed while the reset was in flight. The partial second already elapsed
// shortens the wait for the first tick, keeping the original tick phase.
func (c *Controller) resumeClock() {
	if c.state.Countdown <= 0 {
		return
	}
	elapsed := c.clock.Since(c.lastTickAt)
	missed := int(elapsed / countdown.TickInterval)
	remaining := c.state.Countdown - missed
	if remaining <= 0 {
		c.state.Countdown = 0
		return
	}
	c.state.Countdown = remaining
	c.startClockAfter(remaining, countdown.TickInterval-elapsed%countdown.TickInterval)
}

// publish recomputes the projection and notifies observers when it changed.
func (c *Controller) publish() {
	snap := c.state
	c.snapshot.Store(&snap)

	prev := *c.display.Load()
	next := Project(c.state)
	if next == prev {
		return
	}
	c.display.Store(&next)
	observeDisplay(prev, next)

	if next.Kind != prev.Kind {
		c.logger.Info().
			Str(xglog.FieldEvent, "controller.transition").
			Str(xglog.FieldOldState, string(prev.Kind)).
			Str(xglog.FieldNewState, string(next.Kind)).
			Int(xglog.FieldSecondsLeft, next.SecondsLeft).
			Str(xglog.FieldCause, next.Message).
			Msg("display state changed")
	} else {
		c.logger.Debug().
			Str(xglog.FieldEvent, "controller.tick").
			Int(xglog.FieldSecondsLeft, next.SecondsLeft).
			Msg("countdown updated")
	}

	c.broadcast(next)
}
