// Package app builds the pipeline stages from configuration and owns the
// resources they hold.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maltedev/price-monitor/internal/browser"
	"github.com/maltedev/price-monitor/internal/config"
	"github.com/maltedev/price-monitor/internal/database"
	"github.com/maltedev/price-monitor/internal/fetcher"
	"github.com/maltedev/price-monitor/internal/parser"
	"github.com/maltedev/price-monitor/internal/pipeline"
	"github.com/maltedev/price-monitor/internal/ratelimit"
	"github.com/maltedev/price-monitor/internal/scraper"
	"github.com/maltedev/price-monitor/internal/sink"
	"github.com/maltedev/price-monitor/internal/source"
	"github.com/maltedev/price-monitor/internal/supabase"
	"github.com/redis/go-redis/v9"
)

// Stage selects which parts Build wires up.
type Stage uint8

const (
	StageSource Stage = 1 << iota
	StageScrape
	StageSink

	StageAll = StageSource | StageScrape | StageSink
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Source  source.Source
	Parser  parser.Parser
	Scraper scraper.Scraper
	Limiter ratelimit.RateLimiter
	Sink    sink.Sink

	mu      sync.Mutex
	db      *database.DB
	closers []func() error
}

// Build creates the requested stages. On error every resource opened so
// far is released.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, stages Stage) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Parser: parser.NewHindParser(),
	}

	err := a.build(ctx, stages)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, stages Stage) error {
	if stages&StageSource != 0 {
		src, err := a.newSource(ctx)
		if err != nil {
			return err
		}
		a.Source = src
	}

	if stages&StageScrape != 0 {
		f, err := a.newFetcher()
		if err != nil {
			return err
		}
		a.Scraper = scraper.NewHindScraper(f, a.Parser, a.Logger, scraper.Options{
			MaxOffers:  a.Config.Scraper.MaxOffers,
			SortOffers: a.Config.Scraper.SortOffers,
		})
		if a.Config.Scraper.DelayMax > 0 {
			a.Limiter = ratelimit.NewAdaptiveRateLimiter(a.Config.Scraper.DelayMin, a.Config.Scraper.DelayMax)
		}
	}

	if stages&StageSink != 0 {
		snk, err := a.newSink(ctx)
		if err != nil {
			return err
		}
		a.Sink = snk
	}

	return nil
}

// Runner returns a pipeline over the stages built. Stages that were not
// requested stay nil.
func (a *App) Runner() *pipeline.Runner {
	return pipeline.NewRunner(a.Source, a.Scraper, a.Sink, a.Limiter, a.Logger, pipeline.Options{
		BaseURL:        a.Config.Scraper.BaseURL,
		FailedURLsFile: a.Config.Scraper.FailedURLsFile,
		LogEmpty:       a.Config.Scraper.LogEmpty,
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// onClose must be called with a.mu held or before Build returns.
func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) newSource(ctx context.Context) (source.Source, error) {
	cfg := a.Config.Source

	switch cfg.Type {
	case config.SourceSupabase:
		client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
		return source.NewSupabaseSource(client, cfg.Table, cfg.Column), nil
	case config.SourcePostgres:
		connect := func(ctx context.Context) (source.NameQuerier, error) {
			return a.database(ctx)
		}
		return source.NewPostgresSource(connect, cfg.Table, cfg.Column), nil
	case config.SourceFile:
		return source.NewFileSource(cfg.File), nil
	}

	return nil, fmt.Errorf("unknown source type %q", cfg.Type)
}

func (a *App) newFetcher() (fetcher.Fetcher, error) {
	cfg := a.Config

	if cfg.Scraper.Engine == config.EngineHTTP {
		return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:        cfg.Browser.Timeout,
			UserAgent:      cfg.Scraper.UserAgent,
			AcceptLanguage: cfg.Browser.AcceptLanguage,
		}), nil
	}

	b, err := browser.New(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		SettleDelay:    cfg.Scraper.SettleDelay,
		UserAgent:      cfg.Scraper.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
		ProxyServer:    cfg.Browser.ProxyServer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	a.onClose(b.Close)

	return b, nil
}

func (a *App) newSink(ctx context.Context) (sink.Sink, error) {
	cfg := a.Config
	var sinks []sink.Sink

	for _, kind := range cfg.Sink.Types {
		switch kind {
		case config.SinkSheets:
			svc, err := sink.NewSheetsService(ctx, cfg.Sink.CredentialsFile)
			if err != nil {
				return nil, err
			}
			if cfg.Sink.SpreadsheetID != "" {
				sinks = append(sinks, sink.NewSheetsSink(svc, cfg.Sink.SpreadsheetID, cfg.Sink.Worksheet, a.Logger))
				continue
			}
			drv, err := sink.NewDriveService(ctx, cfg.Sink.CredentialsFile)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink.NewSheetsSinkByName(svc, drv, cfg.Sink.Spreadsheet, cfg.Sink.Worksheet, a.Logger))

		case config.SinkPostgres:
			db, err := a.database(ctx)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, sink.NewPostgresSink(db, cfg.Sink.Table, a.Logger))

		case config.SinkSupabase:
			client := supabase.NewClient(cfg.Source.SupabaseURL, cfg.Source.SupabaseKey)
			sinks = append(sinks, sink.NewSupabaseSink(client, cfg.Sink.SupabaseTable, a.Logger))

		case config.SinkCSV:
			sinks = append(sinks, sink.NewCSVSink(cfg.Sink.CSVFile, a.Logger))

		case config.SinkRedis:
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			a.onClose(client.Close)

			if err := client.Ping(ctx).Err(); err != nil {
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			sinks = append(sinks, sink.NewRedisSink(client, cfg.Sink.RedisStream, cfg.Sink.RedisStreamMaxLen, a.Logger))

		default:
			return nil, fmt.Errorf("unknown sink type %q", kind)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sink.NewMulti(a.Logger, sinks...), nil
}

// database opens the shared pool on first use. The postgres source calls it
// from Products, after Build has returned.
func (a *App) database(ctx context.Context) (*database.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		return a.db, nil
	}

	cfg := a.Config.Database
	db, err := database.New(ctx, database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.DBName,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a.db = db
	a.onClose(func() error {
		db.Close()
		return nil
	})
	return db, nil
}
