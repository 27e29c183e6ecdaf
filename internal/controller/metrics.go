// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netreset_controller_transitions_total",
		Help: "Display state transitions by source and target kind",
	}, []string{"from", "to"})

	secondsLeftGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netreset_countdown_seconds_left",
		Help: "Locally projected seconds until the access point shuts down",
	})

	subscriberDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netreset_subscriber_dropped_updates_total",
		Help: "Display updates discarded because a subscriber fell behind",
	})
)

func observeDisplay(prev, next DisplayState) {
	secondsLeftGauge.Set(float64(next.SecondsLeft))
	if prev.Kind != next.Kind {
		transitionsTotal.WithLabelValues(string(prev.Kind), string(next.Kind)).Inc()
	}
}
