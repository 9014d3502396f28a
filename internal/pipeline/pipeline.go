// Package pipeline runs the monitor end to end: product names from a
// source, catalog URLs, scraped offers, then the sink and the failed-URL log.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/price-monitor/internal/catalog"
	"github.com/maltedev/price-monitor/internal/models"
	"github.com/maltedev/price-monitor/internal/ratelimit"
	"github.com/maltedev/price-monitor/internal/scraper"
	"github.com/maltedev/price-monitor/internal/sink"
	"github.com/maltedev/price-monitor/internal/source"
)

var ErrSinkFailed = errors.New("failed to save results")

type Options struct {
	BaseURL string
	// FailedURLsFile is rewritten after every run that has failures.
	// Empty disables the log.
	FailedURLsFile string
	// LogEmpty also lists URLs whose page had no offers.
	LogEmpty bool
}

type Runner struct {
	source  source.Source
	scraper scraper.Scraper
	sink    sink.Sink
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
	opts    Options
}

// NewRunner wires the stages together. sink and limiter may be nil.
func NewRunner(src source.Source, scr scraper.Scraper, snk sink.Sink, limiter ratelimit.RateLimiter, logger *slog.Logger, opts Options) *Runner {
	if opts.BaseURL == "" {
		opts.BaseURL = catalog.DefaultBaseURL
	}

	return &Runner{
		source:  src,
		scraper: scr,
		sink:    snk,
		limiter: limiter,
		logger:  logger.With("component", "pipeline"),
		opts:    opts,
	}
}

func (r *Runner) Run(ctx context.Context) (*Report, error) {
	return r.RunWithID(ctx, uuid.NewString())
}

// RunWithID runs the pipeline once. Per-URL failures never surface as an
// error; only cancellation and sink failures do.
func (r *Runner) RunWithID(ctx context.Context, runID string) (*Report, error) {
	report := &Report{RunID: runID, StartedAt: time.Now()}
	logger := r.logger.With("run_id", runID)

	names, err := r.source.Products(ctx)
	if err != nil {
		logger.Warn("product source unavailable, continuing with no products", "error", err)
		report.SourceError = err.Error()
		names = nil
	}
	if len(names) == 0 {
		logger.Warn("no products to check")
	}

	links := catalog.DeriveAll(names, r.opts.BaseURL)
	report.Products = len(links)
	logger.Info("run started", "products", len(links))

	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}

	outcomes, err := r.ScrapeURLs(ctx, urls)
	report.add(outcomes, r.opts.LogEmpty)
	if err != nil {
		report.finish()
		return report, err
	}

	if len(report.FailedURLs) > 0 && r.opts.FailedURLsFile != "" {
		if err := WriteFailedLog(r.opts.FailedURLsFile, report.FailedURLs); err != nil {
			logger.Error("failed to write failed-URL log", "file", r.opts.FailedURLsFile, "error", err)
		} else {
			logger.Info("failed URLs logged", "file", r.opts.FailedURLsFile, "count", len(report.FailedURLs))
		}
	}

	if r.sink != nil {
		n, err := r.sink.Write(ctx, report.Results)
		report.RowsWritten = n
		if err != nil {
			report.SinkError = err.Error()
			report.finish()
			logger.Error("sink write failed",
				"sink", r.sink.Name(),
				"rows_written", n,
				"error", err,
				"hint", sink.Hint(err))
			return report, fmt.Errorf("%w: %w", ErrSinkFailed, err)
		}
	}

	report.finish()
	logger.Info("run completed",
		"ok", report.OK,
		"no_offers", report.NoOffers,
		"fetch_failed", report.FetchFailed,
		"parse_failed", report.ParseFailed,
		"rows_written", report.RowsWritten,
		"duration", report.Duration)

	return report, nil
}

// ScrapeURLs scrapes urls one at a time in order. The returned error is
// non-nil only when ctx ends; the outcomes gathered so far are returned
// with it.
func (r *Runner) ScrapeURLs(ctx context.Context, urls []string) ([]models.Outcome, error) {
	outcomes := make([]models.Outcome, 0, len(urls))

	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return outcomes, err
			}
		}

		r.logger.Debug("processing", "index", i+1, "total", len(urls), "url", url)

		outcome := r.scraper.Scrape(ctx, url)
		if r.limiter != nil {
			if outcome.Status == models.OutcomeFetchFailed {
				r.limiter.RecordError()
			} else {
				r.limiter.RecordSuccess()
			}
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
