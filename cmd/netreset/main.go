// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command netreset coordinates the access point's shutdown countdown with the one-shot
// DHCP reset, and can simulate the device for development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ManuGH/netreset/internal/config"
	xglog "github.com/ManuGH/netreset/internal/log"
	"github.com/ManuGH/netreset/internal/version"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "netreset",
		Short:         "Reset an access point to DHCP before its management countdown runs out",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	cmd.AddCommand(
		newServeCmd(opts),
		newMockCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the dotenv file, resolves the configuration and configures the global logger.
func (o *rootOptions) load() (config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}

	cfg, err := config.NewLoader(o.configPath, version.Version).Load()
	if err != nil {
		return cfg, err
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})

	source := "env+defaults"
	if o.configPath != "" {
		source = "file"
	}
	cli := xglog.WithComponent("cli")
	cli.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("path", o.configPath).
		Msg("configuration loaded")
	return cfg, nil
}

func main() {
	xglog.Configure(xglog.Config{Level: "info", Service: "netreset", Version: version.Version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cli := xglog.WithComponent("cli")
		cli.Error().Err(err).Str(xglog.FieldEvent, "cli.failed").Msg("command failed")
		stop()
		os.Exit(1)
	}
}
