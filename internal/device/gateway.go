// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package device talks to the access-point device that counts down to revoking its own
// management access.
package device

import "context"

// Wire paths shared by the real device and the mock device server.
const (
	PathCountdown = "/get_timer"
	PathReset     = "/reset_dhcp"
)

// Gateway is the pair of remote operations the device exposes.
// Implementations never retry; every failure is returned as an error value.
type Gateway interface {
	// FetchCountdown returns the device's remaining seconds, never negative.
	FetchCountdown(ctx context.Context) (int, error)
	// TriggerReset asks the device to reset its wired network configuration to DHCP.
	TriggerReset(ctx context.Context) error
}
