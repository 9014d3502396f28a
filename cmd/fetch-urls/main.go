package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/price-monitor/internal/app"
	"github.com/maltedev/price-monitor/internal/catalog"
	"github.com/maltedev/price-monitor/internal/config"
	"github.com/maltedev/price-monitor/internal/logger"
)

func main() {
	var (
		envFile = flag.String("env", ".env", "Environment file to load if present")
		baseURL = flag.String("base", "", "Catalog base URL (overrides CATALOG_BASE_URL)")
	)
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.ValidateSource(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *baseURL != "" {
		cfg.Scraper.BaseURL = *baseURL
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.StageSource)
	if err != nil {
		logger.Error("Failed to set up product source", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	names, err := a.Source.Products(ctx)
	if err != nil {
		logger.Warn("Product source unavailable, nothing to derive", "error", err)
	}

	links := catalog.DeriveAll(names, cfg.Scraper.BaseURL)
	logger.Info("Derived catalog URLs", "products", len(links))

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for _, l := range links {
		fmt.Fprintf(w, "%s\t%s\n", l.Name, l.URL)
	}
}
