package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/price-monitor/internal/app"
	"github.com/maltedev/price-monitor/internal/config"
	"github.com/maltedev/price-monitor/internal/logger"
	"github.com/maltedev/price-monitor/internal/models"
	"github.com/maltedev/price-monitor/internal/sink"
)

func main() {
	var (
		envFile   = flag.String("env", ".env", "Environment file to load if present")
		inputFile = flag.String("file", "", "JSON results produced by scrape (default: stdin)")
	)
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.ValidateSinks(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	results, err := readResults(*inputFile)
	if err != nil {
		logger.Error("Failed to read results", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.StageSink)
	if err != nil {
		logger.Error("Failed to set up sink", "error", err, "hint", sink.Hint(err))
		os.Exit(1)
	}
	defer a.Close()

	n, err := a.Sink.Write(ctx, results)
	if err != nil {
		logger.Error("Failed to save results", "error", err, "rows_written", n, "hint", sink.Hint(err))
		a.Close()
		os.Exit(1)
	}

	logger.Info("Results saved", "products", len(results), "rows", n, "sinks", cfg.Sink.Types)
}

func readResults(path string) ([]models.ProductResult, error) {
	r := io.Reader(os.Stdin)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var results []models.ProductResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, err
	}
	return results, nil
}
