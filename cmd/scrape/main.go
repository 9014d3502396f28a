package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maltedev/price-monitor/internal/app"
	"github.com/maltedev/price-monitor/internal/config"
	"github.com/maltedev/price-monitor/internal/logger"
	"github.com/maltedev/price-monitor/internal/models"
	"github.com/maltedev/price-monitor/internal/pipeline"
)

func main() {
	var (
		envFile   = flag.String("env", ".env", "Environment file to load if present")
		inputFile = flag.String("file", "", "File with catalog URLs, one per line (default: arguments, then stdin)")
		output    = flag.String("output", "", "Write JSON results to this file instead of stdout")
	)
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.ValidateScraper(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	urls, err := loadURLs(flag.Args(), *inputFile)
	if err != nil {
		logger.Error("Failed to read URLs", "error", err)
		os.Exit(1)
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "No URLs to scrape. Pass them as arguments, with -file, or on stdin.")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.StageScrape)
	if err != nil {
		logger.Error("Failed to set up scraper", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	outcomes, err := a.Runner().ScrapeURLs(ctx, urls)
	if err != nil {
		logger.Warn("Scraping interrupted", "error", err, "done", len(outcomes), "total", len(urls))
	}

	results, failed := pipeline.Collect(outcomes, cfg.Scraper.LogEmpty)
	if len(failed) > 0 {
		if err := pipeline.WriteFailedLog(cfg.Scraper.FailedURLsFile, failed); err != nil {
			logger.Error("Failed to write failed-URL log", "error", err)
		} else {
			logger.Info("Failed URLs logged", "file", cfg.Scraper.FailedURLsFile, "count", len(failed))
		}
	}

	if err := writeResults(results, *output); err != nil {
		logger.Error("Failed to write results", "error", err)
		a.Close()
		os.Exit(1)
	}

	logger.Info("Scraping completed", "urls", len(urls), "results", len(results), "failed", len(failed))
}

func loadURLs(args []string, inputFile string) ([]string, error) {
	var r io.Reader

	switch {
	case len(args) > 0:
		return args, nil
	case inputFile != "":
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	default:
		r = os.Stdin
	}

	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// fetch-urls prints "name<TAB>url"
		if i := strings.LastIndex(line, "\t"); i >= 0 {
			line = strings.TrimSpace(line[i+1:])
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func writeResults(results []models.ProductResult, path string) error {
	if results == nil {
		results = []models.ProductResult{}
	}

	w := io.Writer(os.Stdout)
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
