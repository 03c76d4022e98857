package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"msupdates/internal/config"
	"msupdates/internal/crawler"
	"msupdates/internal/extractor"
	"msupdates/internal/formatter"
	"msupdates/internal/logger"
	"msupdates/internal/output"
	"msupdates/internal/pipeline"
)

func init() {
	runCmd.Flags().StringVar(&flagOutput, "output", "", "Output file path (overrides config)")
	runCmd.Flags().IntVar(&flagWindowDays, "window-days", 0, "Trailing publication window in days (overrides config)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "fetch, extract and write the updates of the publication window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := newLogger(cmd, cfg)
		client := crawler.NewClient(cfg, log)

		var lister pipeline.DocumentLister = client
		if cfg.Feed.Listing == config.ListingCalendar {
			lister = crawler.NewMonthLister(time.Now)
		}

		window := cfg.Feed.Window()

		extra, err := output.LoadExtraRecords(cfg.Output.ExtraFiles, time.Now().Add(-window))
		if err != nil {
			return err
		}

		log.Info("starting run",
			"listing", cfg.Feed.Listing,
			"window_days", cfg.Feed.WindowDays,
			"extra_records", len(extra),
		)

		processor := pipeline.NewProcessor(lister, client,
			extractor.NewExtractorWithConfig(cfg.Extraction.SummaryWidth), log)

		result, err := processor.Run(ctx, window, extra...)

		client.Mirrors().LogAttemptSummary(log)

		if err != nil {
			log.Error("run failed", "error", err)

			return err
		}

		if result.Err != nil {
			log.Warn("some documents were degraded", "degraded", result.Degraded, "error", result.Err)
		}

		if err := output.NewWriter(cfg.Output, log).Write(cfg.Output.Path, result.Records); err != nil {
			return err
		}

		if cfg.Output.ReportPath != "" {
			if err := writeReport(cfg.Output.ReportPath, result, window, log); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d records from %d documents (%d degraded) written to %s\n",
			len(result.Records), result.Documents, result.Degraded, cfg.Output.Path)

		return nil
	},
}

func writeReport(path string, result *pipeline.Result, window time.Duration, log *logger.Logger) error {
	report := formatter.RenderReport(result.Records, window, time.Now())

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Info("wrote report", "path", path)

	return nil
}
