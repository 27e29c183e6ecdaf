// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

// Kind is the single externally visible phase of the controller.
type Kind string

const (
	KindLoading   Kind = "loading"
	KindCounting  Kind = "counting"
	KindExpired   Kind = "expired"
	KindResetting Kind = "resetting"
	KindSuccess   Kind = "success"
	KindError     Kind = "error"
)

// Fault tells which operation an error display belongs to.
type Fault string

const (
	FaultNone  Fault = ""
	FaultFetch Fault = "fetch" // countdown read failed; not recoverable in this session
	FaultReset Fault = "reset" // reset failed; the operator may retry
)

// ResetStatus is the lifecycle of the reset action.
type ResetStatus int

const (
	ResetNotStarted ResetStatus = iota
	ResetInFlight
	ResetSucceeded
	ResetFailed
)

// String returns a human-readable status name.
func (s ResetStatus) String() string {
	switch s {
	case ResetNotStarted:
		return "not_started"
	case ResetInFlight:
		return "in_flight"
	case ResetSucceeded:
		return "succeeded"
	case ResetFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the authoritative controller state. Only the controller's event loop mutates it.
type State struct {
	// CountdownKnown is false until the device countdown has been fetched.
	CountdownKnown bool
	// Countdown is the locally projected seconds remaining. Never negative.
	Countdown int

	FetchFailed bool
	FetchCause  string

	Reset      ResetStatus
	ResetCause string
}

// DisplayState is the projection consumed by presentation layers.
type DisplayState struct {
	Kind        Kind   `json:"kind"`
	SecondsLeft int    `json:"secondsLeft"`
	Message     string `json:"message,omitempty"`
	Fault       Fault  `json:"fault,omitempty"`
	CanReset    bool   `json:"canReset"`
}

// Project derives the display state from s. It is pure and total: every State maps to
// exactly one Kind. Reset progress takes priority over the countdown.
func Project(s State) DisplayState {
	switch s.Reset {
	case ResetSucceeded:
		return DisplayState{Kind: KindSuccess, SecondsLeft: s.Countdown}
	case ResetInFlight:
		return DisplayState{Kind: KindResetting, SecondsLeft: s.Countdown}
	case ResetFailed:
		return DisplayState{
			Kind:        KindError,
			SecondsLeft: s.Countdown,
			Message:     s.ResetCause,
			Fault:       FaultReset,
			CanReset:    true,
		}
	}

	if s.FetchFailed {
		return DisplayState{Kind: KindError, Message: s.FetchCause, Fault: FaultFetch}
	}
	if !s.CountdownKnown {
		return DisplayState{Kind: KindLoading}
	}
	if s.Countdown > 0 {
		return DisplayState{Kind: KindCounting, SecondsLeft: s.Countdown, CanReset: true}
	}
	return DisplayState{Kind: KindExpired, CanReset: true}
}
