// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/netreset/internal/log"
)

// Environment keys.
const (
	EnvDeviceURL      = "NETRESET_DEVICE_URL"
	EnvRequestTimeout = "NETRESET_REQUEST_TIMEOUT"
	EnvListen         = "NETRESET_LISTEN"
	EnvResetRateLimit = "NETRESET_RESET_RATE_LIMIT"
	EnvCORSOrigins    = "NETRESET_CORS_ORIGINS"
	EnvLogLevel       = "NETRESET_LOG_LEVEL"
	EnvLogService     = "NETRESET_LOG_SERVICE"
	EnvMockListen     = "NETRESET_MOCK_LISTEN"
	EnvMockTimer      = "NETRESET_MOCK_TIMER"
	EnvMockDelayMs    = "NETRESET_MOCK_DELAY_MS"
	EnvMockFailReset  = "NETRESET_MOCK_FAIL_RESET"
	EnvMockFailTimer  = "NETRESET_MOCK_FAIL_TIMER"
)

func configLogger() zerolog.Logger {
	return log.WithComponent("config")
}

// lookup returns the value of key and whether it is set to something non-empty.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("environment variable not set")
		return "", false
	}
	return v, true
}

// ParseString reads a string from the environment or returns defaultValue.
// It logs the source (environment or default).
func ParseString(key, defaultValue string) string {
	logger := configLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	logger.Debug().Str("key", key).Str("value", v).Str("source", "environment").Msg("using environment variable")
	return v
}

// ParseInt reads an integer from the environment, falling back to defaultValue on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := configLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
	return i
}

// ParseDuration reads a Go duration (e.g. "5s") from the environment. A bare integer is
// taken as seconds.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := configLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	v = strings.TrimSpace(v)
	d, err := time.ParseDuration(v)
	if err != nil {
		secs, convErr := strconv.Atoi(v)
		if convErr != nil {
			logger.Warn().Str("key", key).Str("value", v).Dur("default", defaultValue).
				Msg("invalid duration in environment variable, using default")
			return defaultValue
		}
		d = time.Duration(secs) * time.Second
	}
	logger.Debug().Str("key", key).Dur("value", d).Str("source", "environment").Msg("using environment variable")
	return d
}

// ParseBool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	logger := configLogger()
	v, ok := lookup(logger, key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
}

// ParseList reads a comma-separated list, dropping blanks.
func ParseList(key string, defaultValue []string) []string {
	raw := ParseString(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyEnv overrides cfg with every set environment variable.
func applyEnv(cfg *Config) {
	cfg.Device.URL = ParseString(EnvDeviceURL, cfg.Device.URL)
	cfg.Device.RequestTimeout = ParseDuration(EnvRequestTimeout, cfg.Device.RequestTimeout)

	cfg.API.Listen = ParseString(EnvListen, cfg.API.Listen)
	cfg.API.ResetRateLimit = ParseInt(EnvResetRateLimit, cfg.API.ResetRateLimit)
	cfg.API.CORSOrigins = ParseList(EnvCORSOrigins, cfg.API.CORSOrigins)

	cfg.Log.Level = ParseString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Service = ParseString(EnvLogService, cfg.Log.Service)

	cfg.Mock.Listen = ParseString(EnvMockListen, cfg.Mock.Listen)
	cfg.Mock.Timer = ParseInt(EnvMockTimer, cfg.Mock.Timer)
	cfg.Mock.DelayMs = ParseInt(EnvMockDelayMs, cfg.Mock.DelayMs)
	cfg.Mock.FailReset = ParseBool(EnvMockFailReset, cfg.Mock.FailReset)
	cfg.Mock.FailTimer = ParseBool(EnvMockFailTimer, cfg.Mock.FailTimer)
}
