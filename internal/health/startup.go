// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/netreset/internal/config"
	"github.com/ManuGH/netreset/internal/log"
)

// PerformStartupChecks validates the environment before the server starts.
// An unreachable device is only logged: the controller reports it as a fetch error.
func PerformStartupChecks(ctx context.Context, cfg config.Config) error {
	logger := log.WithComponent("startup-check")

	if err := checkListenFree(cfg.API.Listen); err != nil {
		return fmt.Errorf("api listen address: %w", err)
	}
	checkDeviceReachable(ctx, logger, cfg.Device.URL)

	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Msg("startup checks passed")
	return nil
}

func checkListenFree(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ln.Close()
}

func checkDeviceReachable(ctx context.Context, logger zerolog.Logger, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	dialer := net.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "startup.device_unreachable").
			Str(log.FieldBaseURL, raw).
			Msg("device not reachable yet")
		return
	}
	_ = conn.Close()
}
