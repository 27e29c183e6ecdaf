// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config resolves netreset's configuration from defaults, an optional strict YAML
// file and NETRESET_* environment variables, in increasing priority.
package config
