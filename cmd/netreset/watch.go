// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ManuGH/netreset/internal/controller"
	"github.com/ManuGH/netreset/internal/device"
)

// errFetchFailed ends watch when the countdown could not be read.
var errFetchFailed = errors.New("device countdown unavailable")

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the countdown in the terminal, optionally triggering the reset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			gw := device.New(cfg.Device.URL, device.WithTimeout(cfg.Device.RequestTimeout))
			ctrl := controller.New(gw)
			defer ctrl.Close()
			return runWatch(cmd.Context(), ctrl, cmd.OutOrStdout(), reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "trigger the DHCP reset as soon as the countdown is known")
	return cmd
}

// watchController is what runWatch needs from the controller.
type watchController interface {
	Start(ctx context.Context) error
	Reset(ctx context.Context) error
	Subscribe(buffer int) (<-chan controller.DisplayState, func())
}

// runWatch prints one line per display change until the reset succeeded, the countdown
// could not be read, or ctx ends.
func runWatch(ctx context.Context, ctrl watchController, out io.Writer, reset bool) error {
	updates, unsubscribe := ctrl.Subscribe(16)
	defer unsubscribe()

	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	requested := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ds, ok := <-updates:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(out, notice(ds)); err != nil {
				return err
			}
			switch {
			case ds.Kind == controller.KindSuccess:
				return nil
			case ds.Kind == controller.KindError && ds.Fault == controller.FaultFetch:
				return fmt.Errorf("%w: %s", errFetchFailed, ds.Message)
			case reset && !requested && ds.CanReset:
				requested = true
				if err := ctrl.Reset(ctx); err != nil {
					return fmt.Errorf("request reset: %w", err)
				}
			}
		}
	}
}

// notice renders a display state as the operator-facing message.
func notice(ds controller.DisplayState) string {
	switch ds.Kind {
	case controller.KindLoading:
		return "Loading..."
	case controller.KindCounting:
		return fmt.Sprintf("This access point will shut down in %d seconds.", ds.SecondsLeft)
	case controller.KindExpired:
		return "Access point is shutting down now!"
	case controller.KindResetting:
		return "Applying changes..."
	case controller.KindSuccess:
		return "Changes applied. Check connectivity to the device."
	case controller.KindError:
		if ds.Fault == controller.FaultFetch {
			return "Failed to read the shutdown timer. " + ds.Message
		}
		return "Failed to reset DHCP. " + ds.Message
	default:
		return string(ds.Kind)
	}
}
