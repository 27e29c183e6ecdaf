// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "v1.2.3"
	assert.Equal(t, want, cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, "netreset.yaml", `
device:
  url: http://10.0.0.1
  requestTimeout: 5s
api:
  listen: 127.0.0.1:9000
  corsOrigins: [http://ap.local]
mock:
  timer: 60
`)
	t.Setenv(EnvListen, ":9100")
	t.Setenv(EnvMockFailReset, "true")

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.1", cfg.Device.URL)
	assert.Equal(t, 5*time.Second, cfg.Device.RequestTimeout)
	assert.Equal(t, ":9100", cfg.API.Listen, "environment wins over file")
	assert.Equal(t, []string{"http://ap.local"}, cfg.API.CORSOrigins)
	assert.Equal(t, 60, cfg.Mock.Timer)
	assert.True(t, cfg.Mock.FailReset)
	assert.Equal(t, DefaultResetRateLimit, cfg.API.ResetRateLimit, "unset keys keep defaults")
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "netreset.yaml", "device:\n  address: http://10.0.0.1\n")

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := writeConfig(t, "netreset.json", "{}")
	_, err := NewLoader(path, "").Load()
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "netreset.yml", "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceURL, cfg.Device.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.Device.URL = "" }, errMsg: "device.url is required"},
		{name: "bad scheme", mutate: func(c *Config) { c.Device.URL = "ftp://ap" }, errMsg: "http or https"},
		{name: "no host", mutate: func(c *Config) { c.Device.URL = "http://" }, errMsg: "no host"},
		{name: "zero timeout", mutate: func(c *Config) { c.Device.RequestTimeout = 0 }, errMsg: "requestTimeout"},
		{name: "bad listen", mutate: func(c *Config) { c.API.Listen = "8080" }, errMsg: "api.listen"},
		{name: "negative rate limit", mutate: func(c *Config) { c.API.ResetRateLimit = -1 }, errMsg: "resetRateLimit"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, errMsg: "log.level"},
		{name: "negative mock timer", mutate: func(c *Config) { c.Mock.Timer = -5 }, errMsg: "mock.timer"},
		{name: "negative mock delay", mutate: func(c *Config) { c.Mock.DelayMs = -1 }, errMsg: "mock.delayMs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_InvalidEnvFailsValidation(t *testing.T) {
	t.Setenv(EnvDeviceURL, "not a url")
	_, err := NewLoader("", "").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}
