// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mockdevice

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mockRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netreset_mock_requests_total",
		Help: "Simulated device requests by endpoint and status",
	}, []string{"endpoint", "status"})

	mockConfigUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netreset_mock_config_updates_total",
		Help: "Applied fault-injection configuration updates",
	})
)

func observeRequest(endpoint string, status int) {
	mockRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}
