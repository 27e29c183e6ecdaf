// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package device

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netreset_gateway_requests_total",
		Help: "Device gateway requests by operation and result",
	}, []string{
		"operation", // fetch_countdown|trigger_reset
		"result",    // success|status|transport|bad_response
	})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netreset_gateway_request_duration_seconds",
		Help:    "Device gateway request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func observeRequest(operation string, start time.Time, err error) {
	gatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	gatewayRequestsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUpstreamStatus):
		return "status"
	case errors.Is(err, ErrBadResponse):
		return "bad_response"
	default:
		return "transport"
	}
}
