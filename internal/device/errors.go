// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package device

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUpstreamStatus = errors.New("device: non-200 response")
	ErrTransport      = errors.New("device: host unreachable or transport failure")
	ErrBadResponse    = errors.New("device: invalid response format or malformed data")
)

// GatewayError is the only error type returned by Client. Cause is the human-readable
// reason shown to the operator: the response status text, or the transport failure.
type GatewayError struct {
	Sentinel  error
	Operation string
	Status    int
	Cause     string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("device: %s: %s", e.Operation, e.Cause)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Sentinel, e.Err}
	}
	return []error{e.Sentinel}
}

// Cause extracts the operator-facing reason from err.
// Gateway errors yield their Cause verbatim; anything else yields err.Error().
func Cause(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Cause != "" {
		return gwErr.Cause
	}
	return err.Error()
}
