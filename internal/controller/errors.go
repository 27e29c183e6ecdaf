// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import "errors"

// Reset request outcomes. None of them change the controller state.
var (
	ErrNotReady      = errors.New("controller: countdown not available")
	ErrResetInFlight = errors.New("controller: reset already in flight")
	ErrAlreadyReset  = errors.New("controller: reset already succeeded")
	ErrClosed        = errors.New("controller: closed")
)
