package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lectern/internal/catalog"
	"lectern/internal/logging"
	"lectern/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every pending file in the workspace once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := runOnce(runCtx, ctx, cmd)
			if report != nil {
				printRunSummary(cmd, report)
			}
			if errors.Is(err, context.Canceled) {
				if cfg, cfgErr := ctx.ensureConfig(); cfgErr == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Interrupted. Progress is saved in %s; run again to resume.\n", cfg.LedgerPath())
				}
			}
			return err
		},
	}
	return cmd
}

func runOnce(runCtx context.Context, ctx *commandContext, cmd *cobra.Command) (*pipeline.Report, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithProgress(isTerminal(cmd.OutOrStdout()))}

	store, storeErr := catalog.Open(cfg.CatalogPath())
	if storeErr != nil {
		logger.Warn("catalog unavailable, run history will not be recorded", logging.Error(storeErr))
	} else {
		defer store.Close()
		opts = append(opts, pipeline.WithRecorder(store))
	}

	runner, err := pipeline.New(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	return runner.Run(runCtx)
}

func printRunSummary(cmd *cobra.Command, report *pipeline.Report) {
	out := cmd.OutOrStdout()
	if report.Resumed {
		fmt.Fprintln(out, "Resumed from existing ledger state.")
	}
	completed, failed, skipped := report.Counts()
	fmt.Fprintf(out, "Run finished in %s: %d completed, %d failed, %d skipped\n",
		report.Duration().Round(roundTo), completed, failed, skipped)
	for _, failure := range report.Failures() {
		fmt.Fprintf(out, "  failed %s [%s]: %v\n", failure.Identity, failure.Stage, failure.Err)
	}
}
