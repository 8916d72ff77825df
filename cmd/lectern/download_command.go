package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lectern/internal/catalog"
	"lectern/internal/logging"
	"lectern/internal/services/ytdlp"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var runAfter bool

	cmd := &cobra.Command{
		Use:   "download <url> [url...]",
		Short: "Download audio from streaming URLs into the workspace",
		Long: "Downloads each URL with yt-dlp as WAV audio named after the video\n" +
			"title and places it in the extracted-audio directory, where the next\n" +
			"run picks it up at the transcription stage.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			downloadCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			downloader := ytdlp.New(ytdlp.Config{Binary: cfg.Download.Binary})
			if err := downloader.Probe(); err != nil {
				return err
			}

			store, storeErr := catalog.Open(cfg.CatalogPath())
			if storeErr != nil {
				logger.Warn("catalog unavailable, downloads will not be recorded", logging.Error(storeErr))
			} else {
				defer store.Close()
			}

			out := cmd.OutOrStdout()
			for _, url := range args {
				media, err := downloader.Download(downloadCtx, url, cfg.Workspace.AudioDir)
				if err != nil {
					return fmt.Errorf("download %s: %w", url, err)
				}
				fmt.Fprintf(out, "Downloaded %q to %s\n", media.Title, media.Path)
				if store == nil {
					continue
				}
				record := catalog.Download{
					MediaID:         media.ID,
					Title:           media.Title,
					Channel:         media.Channel,
					Path:            media.Path,
					URL:             url,
					DurationSeconds: media.DurationSeconds,
				}
				if err := store.RecordDownload(downloadCtx, record); err != nil {
					logger.Warn("recording download failed", logging.Error(err))
				}
			}

			if !runAfter {
				return nil
			}
			report, err := runOnce(downloadCtx, ctx, cmd)
			if report != nil {
				printRunSummary(cmd, report)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&runAfter, "run", false, "process the workspace after downloading")
	return cmd
}
