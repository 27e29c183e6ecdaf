// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package countdown turns a single device-reported "seconds remaining" value into a
// locally ticking countdown.
package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the wall-clock time between two ticks.
const TickInterval = time.Second

// Clock runs at most one countdown at a time.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock struct {
	clock clockwork.Clock

	mu   sync.Mutex
	run  *run
	last *run
}

type run struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (r *run) cancel() {
	r.once.Do(func() { close(r.stop) })
}

// New creates a countdown clock on top of the given time source.
// A nil clock falls back to the real wall clock.
func New(clock clockwork.Clock) *Clock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Clock{clock: clock}
}

// Start begins counting down from initial, calling onTick once per elapsed second with the
// remaining value. Ticking stops permanently after the tick that reports 0.
//
// If initial is 0 or less, onTick(0) is called synchronously and no ticking happens.
// Any previously started countdown is cancelled first.
func (c *Clock) Start(initial int, onTick func(remaining int)) {
	c.StartAfter(initial, TickInterval, onTick)
}

// StartAfter is Start with the first tick due after first instead of a full TickInterval.
// Later ticks follow every TickInterval. A first outside (0, TickInterval] means TickInterval.
func (c *Clock) StartAfter(initial int, first time.Duration, onTick func(remaining int)) {
	if first <= 0 || first > TickInterval {
		first = TickInterval
	}
	c.mu.Lock()
	if c.run != nil {
		c.run.cancel()
		c.run = nil
	}
	if initial <= 0 {
		c.mu.Unlock()
		onTick(0)
		return
	}

	r := &run{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	c.run = r
	c.last = r
	timer := c.clock.NewTimer(first)
	c.mu.Unlock()

	go c.loop(r, timer, initial, onTick)
}

func (c *Clock) loop(r *run, timer clockwork.Timer, remaining int, onTick func(int)) {
	defer close(r.done)

	var ticker clockwork.Ticker
	defer func() {
		timer.Stop()
		if ticker != nil {
			ticker.Stop()
		}
	}()

	next := timer.Chan()
	for {
		select {
		case <-r.stop:
			return
		case <-next:
		}
		if ticker == nil {
			ticker = c.clock.NewTicker(TickInterval)
			next = ticker.Chan()
		}

		// A cancel that raced with the tick wins.
		select {
		case <-r.stop:
			return
		default:
		}

		remaining--
		if remaining <= 0 {
			c.finish(r)
			onTick(0)
			return
		}
		onTick(remaining)
	}
}

// finish detaches r once it has reached zero so Active reports false.
func (c *Clock) finish(r *run) {
	c.mu.Lock()
	if c.run == r {
		c.run = nil
	}
	c.mu.Unlock()
}

// Cancel stops the active countdown without reporting a final value.
// It is safe to call any number of times, including after the countdown reached zero.
func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.run != nil {
		c.run.cancel()
		c.run = nil
	}
}

// Active reports whether a countdown is currently ticking.
func (c *Clock) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run != nil
}

// Wait blocks until the goroutine of the most recently started countdown has exited.
// Call it after Cancel, or once the countdown reached zero.
func (c *Clock) Wait() {
	c.mu.Lock()
	r := c.last
	c.mu.Unlock()
	if r != nil {
		<-r.done
	}
}
