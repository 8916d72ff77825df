package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/logging"
	"lectern/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run continuously, re-processing when new files arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			watchCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			trigger := func(triggerCtx context.Context) {
				report, err := runOnce(triggerCtx, ctx, cmd)
				if report != nil {
					printRunSummary(cmd, report)
				}
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("pipeline run failed", logging.Error(err))
				}
			}

			dirs := []string{
				cfg.Workspace.InputDir,
				cfg.Workspace.RecordDir,
				cfg.Workspace.AudioDir,
				cfg.Workspace.TextDir,
			}
			debounce := time.Duration(cfg.Workflow.WatchDebounceSeconds) * time.Second
			watcher, err := watch.New(dirs, debounce, logger, trigger)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Watching for new files. Press Ctrl-C to stop.")
			err = watcher.Run(watchCtx)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped.")
				return nil
			}
			return err
		},
	}
	return cmd
}
