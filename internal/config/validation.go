// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/rs/zerolog"
)

// Validate checks cfg and reports every problem at once.
func Validate(cfg Config) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	u, err := url.Parse(cfg.Device.URL)
	switch {
	case cfg.Device.URL == "":
		add("device.url is required")
	case err != nil:
		add("device.url: %v", err)
	case u.Scheme != "http" && u.Scheme != "https":
		add("device.url must use http or https, got %q", u.Scheme)
	case u.Host == "":
		add("device.url has no host")
	}

	if cfg.Device.RequestTimeout <= 0 {
		add("device.requestTimeout must be positive")
	}
	if err := validateListen(cfg.API.Listen); err != nil {
		add("api.listen: %v", err)
	}
	if cfg.API.ResetRateLimit < 0 {
		add("api.resetRateLimit must not be negative")
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	if err := validateListen(cfg.Mock.Listen); err != nil {
		add("mock.listen: %v", err)
	}
	if cfg.Mock.Timer < 0 {
		add("mock.timer must not be negative")
	}
	if cfg.Mock.DelayMs < 0 {
		add("mock.delayMs must not be negative")
	}

	return errors.Join(errs...)
}

func validateListen(addr string) error {
	if addr == "" {
		return errors.New("address is required")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if port == "" {
		return errors.New("port is required")
	}
	return nil
}
