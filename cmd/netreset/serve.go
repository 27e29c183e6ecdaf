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

	"github.com/ManuGH/netreset/internal/api"
	"github.com/ManuGH/netreset/internal/config"
	"github.com/ManuGH/netreset/internal/controller"
	"github.com/ManuGH/netreset/internal/device"
	"github.com/ManuGH/netreset/internal/health"
	xglog "github.com/ManuGH/netreset/internal/log"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reset controller and the operator API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := xglog.WithComponent("serve")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return err
	}

	gw := device.New(cfg.Device.URL, device.WithTimeout(cfg.Device.RequestTimeout))
	ctrl := controller.New(gw)
	defer ctrl.Close()

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewControllerChecker(ctrl))

	apiSrv := api.New(api.Config{
		CORSOrigins:    cfg.API.CORSOrigins,
		ResetRateLimit: cfg.API.ResetRateLimit,
		TracingService: cfg.Log.Service,
	}, ctrl, hm)

	httpSrv := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           apiSrv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	httpSrv.RegisterOnShutdown(apiSrv.Close)

	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str(xglog.FieldEvent, "serve.listening").
			Str("addr", cfg.API.Listen).
			Str(xglog.FieldBaseURL, cfg.Device.URL).
			Msg("operator API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info().Str(xglog.FieldEvent, "serve.shutdown").Msg("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
