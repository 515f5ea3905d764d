// Command study-server serves a completed event study run over HTTP:
// labeled events, the fitted market model, the run manifest, and Prometheus
// metrics. It is read-only; run the eventstudy command to produce results.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"evstudy/internal/config"
	"evstudy/internal/infrastructure"
	"evstudy/internal/server"
)

func main() {
	dataDir := flag.String("data", "", "data directory (overrides configured path)")
	port := flag.Int("port", 0, "listen port (overrides configured port)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	paths, err := config.NewPaths(cfg.Paths, "")
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("study-server.log")
	}
	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, paths, logger)
	logger.Info("Starting results server",
		slog.Int("port", cfg.Server.Port),
		slog.String("data_dir", paths.DataDir))

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
