// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"

	"github.com/ManuGH/netreset/internal/controller"
)

// StateSource exposes the controller's current display state.
type StateSource interface {
	State() controller.DisplayState
}

// ControllerChecker maps the controller's display state to a component status.
// The service is not ready until the device countdown has been read.
type ControllerChecker struct {
	src StateSource
}

// NewControllerChecker creates a checker backed by src.
func NewControllerChecker(src StateSource) *ControllerChecker {
	return &ControllerChecker{src: src}
}

func (c *ControllerChecker) Name() string {
	return "controller"
}

func (c *ControllerChecker) Check(_ context.Context) CheckResult {
	ds := c.src.State()
	switch {
	case ds.Kind == controller.KindLoading:
		return CheckResult{Status: StatusUnhealthy, Message: "device countdown not fetched yet"}
	case ds.Kind == controller.KindError && ds.Fault == controller.FaultFetch:
		return CheckResult{Status: StatusUnhealthy, Message: "device countdown unavailable", Error: ds.Message}
	case ds.Kind == controller.KindError:
		return CheckResult{Status: StatusDegraded, Message: "last reset failed", Error: ds.Message}
	default:
		return CheckResult{Status: StatusHealthy, Message: string(ds.Kind)}
	}
}
