package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/price-monitor/internal/app"
	"github.com/maltedev/price-monitor/internal/config"
	"github.com/maltedev/price-monitor/internal/logger"
	"github.com/maltedev/price-monitor/internal/sink"
)

func main() {
	envFile := flag.String("env", ".env", "Environment file to load if present")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	logger.Info("Starting price monitor", "source", cfg.Source.Type, "sinks", cfg.Sink.Types)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.StageAll)
	if err != nil {
		logger.Error("Failed to set up pipeline", "error", err, "hint", sink.Hint(err))
		os.Exit(1)
	}
	defer a.Close()

	report, err := a.Runner().Run(ctx)
	if err != nil {
		logger.Error("Run failed", "error", err, "hint", sink.Hint(err))
		a.Close()
		os.Exit(1)
	}

	logger.Info("Run finished",
		"run_id", report.RunID,
		"products", report.Products,
		"offers", report.Offers,
		"rows_written", report.RowsWritten,
		"failed", len(report.FailedURLs))
}
