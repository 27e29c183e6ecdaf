// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Config is the resolved runtime configuration.
type Config struct {
	Version string `yaml:"-"`

	Device DeviceConfig `yaml:"device"`
	API    APIConfig    `yaml:"api"`
	Log    LogConfig    `yaml:"log"`
	Mock   MockConfig   `yaml:"mock"`
}

// DeviceConfig points the gateway at the access point.
type DeviceConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// APIConfig configures the operator API listener.
type APIConfig struct {
	Listen         string   `yaml:"listen"`
	ResetRateLimit int      `yaml:"resetRateLimit"` // per client IP and minute, 0 disables
	CORSOrigins    []string `yaml:"corsOrigins"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// MockConfig seeds the simulated device started by the mock command.
type MockConfig struct {
	Listen    string `yaml:"listen"`
	Timer     int    `yaml:"timer"`
	DelayMs   int    `yaml:"delayMs"`
	FailReset bool   `yaml:"failReset"`
	FailTimer bool   `yaml:"failTimer"`
}

// Default values.
const (
	DefaultDeviceURL      = "http://192.168.42.1"
	DefaultRequestTimeout = 30 * time.Second
	DefaultListen         = ":8080"
	DefaultResetRateLimit = 10
	DefaultLogLevel       = "info"
	DefaultLogService     = "netreset"
	DefaultMockListen     = ":8081"
	DefaultMockTimer      = 300
)

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Device: DeviceConfig{
			URL:            DefaultDeviceURL,
			RequestTimeout: DefaultRequestTimeout,
		},
		API: APIConfig{
			Listen:         DefaultListen,
			ResetRateLimit: DefaultResetRateLimit,
		},
		Log: LogConfig{
			Level:   DefaultLogLevel,
			Service: DefaultLogService,
		},
		Mock: MockConfig{
			Listen: DefaultMockListen,
			Timer:  DefaultMockTimer,
		},
	}
}
