// Command eventstudy runs the full event study batch: it builds the price
// panel from the raw data directory, fits the per-ticker market model,
// computes abnormal returns, aligns the event catalog to trading days,
// aggregates CAR windows, and labels event impact. All outputs land in the
// processed data directory alongside a run manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"evstudy/internal/config"
	"evstudy/internal/infrastructure"
	"evstudy/internal/pipeline"
)

func main() {
	dataDir := flag.String("data", "", "data directory (overrides configured path)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	paths, err := config.NewPaths(cfg.Paths, "")
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("eventstudy.log")
	}
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting event study run",
		slog.String("data_dir", paths.DataDir),
		slog.String("market_ticker", cfg.Study.MarketTicker),
		slog.Any("windows", cfg.Study.Windows))

	stages, err := pipeline.NewStages(cfg, paths, logger)
	if err != nil {
		logger.Error("Invalid study configuration", "error", err)
		os.Exit(1)
	}

	runner := pipeline.NewRunner(stages, paths.RunManifestJSON, logger)
	state, manifest, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Run failed", "error", err, "run_id", manifest.RunID)
		os.Exit(1)
	}

	for _, warning := range state.Warnings() {
		logger.Warn("Run warning", slog.String("warning", warning.String()))
	}

	fmt.Printf("Run %s complete: %d events labeled, %d panel rows, %d warnings\n",
		manifest.RunID, len(state.Labeled), len(state.Panel), len(state.Warnings()))
	fmt.Printf("Outputs written to %s\n", paths.ProcessedDir)
}
