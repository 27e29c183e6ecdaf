// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/netreset/internal/config"
	xglog "github.com/ManuGH/netreset/internal/log"
	"github.com/ManuGH/netreset/internal/mockdevice"
)

func newMockCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mock",
		Short: "Simulate the access point's management endpoints with injectable faults",
		Long: "Serves /get_timer and /reset_dhcp like the device does. Failures, latency and the\n" +
			"countdown seed can be changed at runtime through /__mock?failReset=&failTimer=&timer=&delay=.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runMock(cmd.Context(), cfg.Mock)
		},
	}
}

func runMock(ctx context.Context, cfg config.MockConfig) error {
	logger := xglog.WithComponent("mock")

	store := mockdevice.NewStore(mockdevice.Config{
		FailReset: cfg.FailReset,
		FailTimer: cfg.FailTimer,
		TimerSeed: cfg.Timer,
		DelayMs:   cfg.DelayMs,
	})
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mockdevice.NewServer(store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str(xglog.FieldEvent, "mock.listening").
			Str("addr", cfg.Listen).
			Interface("config", store.Get()).
			Msg("mock device listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
