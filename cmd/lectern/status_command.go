package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lectern/internal/catalog"
	"lectern/internal/config"
	"lectern/internal/ledger"
	"lectern/internal/pipeline"
	"lectern/internal/stage"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var historyLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stage health, ledger progress, and recent history",
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

			runner, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			printHealthSection(cmd, runner)
			printLedgerSection(cmd.OutOrStdout(), cfg, runner.Ledger())
			printHistorySections(cmd, cfg, historyLimit)
			return nil
		},
	}

	cmd.Flags().IntVar(&historyLimit, "history", 10, "number of recent runs and downloads to show")
	return cmd
}

func printHealthSection(cmd *cobra.Command, runner *pipeline.Runner) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Stage health")
	tbl := newStatusTable("Stage", "State", "Detail")
	for _, health := range runner.HealthCheck(cmd.Context()) {
		state := "ready"
		if !health.Ready {
			state = "unavailable"
		}
		tbl.addRow(health.Name, state, health.Detail)
	}
	fmt.Fprintln(out, tbl.render())
}

func printLedgerSection(out io.Writer, cfg *config.Config, led *ledger.Ledger) {
	fmt.Fprintf(out, "\nLedger (%s)\n", cfg.LedgerPath())
	identities := led.Identities()
	if len(identities) == 0 {
		fmt.Fprintln(out, "No tracked files yet.")
		return
	}

	stages := stage.All()
	headers := make([]string, 0, len(stages)+1)
	headers = append(headers, "File")
	for _, s := range stages {
		headers = append(headers, string(s))
	}
	tbl := newStatusTable(headers...).marker(2, len(headers))
	for _, id := range identities {
		row := make([]string, 0, len(headers))
		row = append(row, string(id))
		for _, s := range stages {
			mark := ""
			if led.Complete(id, s) {
				mark = "O"
			}
			row = append(row, mark)
		}
		tbl.addRow(row...)
	}
	fmt.Fprintln(out, tbl.render())
}

func printHistorySections(cmd *cobra.Command, cfg *config.Config, limit int) {
	out := cmd.OutOrStdout()
	store, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		fmt.Fprintf(out, "\nHistory unavailable: %v\n", err)
		return
	}
	defer store.Close()

	fmt.Fprintln(out, "\nRecent runs")
	runs, err := store.RecentRuns(cmd.Context(), limit)
	switch {
	case err != nil:
		fmt.Fprintf(out, "query failed: %v\n", err)
	case len(runs) == 0:
		fmt.Fprintln(out, "No runs recorded yet.")
	default:
		tbl := newStatusTable("Started", "Duration", "Completed", "Failed", "Skipped").numeric(2, 3, 4, 5)
		for _, run := range runs {
			tbl.addRow(
				run.Started.Local().Format(time.DateTime),
				run.Finished.Sub(run.Started).Round(roundTo).String(),
				strconv.Itoa(run.Completed),
				strconv.Itoa(run.Failed),
				strconv.Itoa(run.Skipped),
			)
		}
		fmt.Fprintln(out, tbl.render())
	}

	fmt.Fprintln(out, "\nRecent downloads")
	downloads, err := store.RecentDownloads(cmd.Context(), limit)
	switch {
	case err != nil:
		fmt.Fprintf(out, "query failed: %v\n", err)
	case len(downloads) == 0:
		fmt.Fprintln(out, "No downloads recorded yet.")
	default:
		tbl := newStatusTable("Downloaded", "Title", "Channel", "Length").numeric(4)
		for _, download := range downloads {
			tbl.addRow(
				download.DownloadedAt.Local().Format(time.DateTime),
				download.Title,
				download.Channel,
				formatDuration(download.DurationSeconds),
			)
		}
		fmt.Fprintln(out, tbl.render())
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return time.Duration(seconds * float64(time.Second)).Round(roundTo).String()
}
