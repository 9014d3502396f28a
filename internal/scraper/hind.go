package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/price-monitor/internal/fetcher"
	"github.com/maltedev/price-monitor/internal/models"
	"github.com/maltedev/price-monitor/internal/parser"
)

type HindScraper struct {
	fetcher fetcher.Fetcher
	parser  parser.Parser
	logger  *slog.Logger
	opts    Options
}

func NewHindScraper(f fetcher.Fetcher, p parser.Parser, logger *slog.Logger, opts Options) *HindScraper {
	if opts.MaxOffers <= 0 {
		opts.MaxOffers = parser.DefaultMaxOffers
	}

	return &HindScraper{
		fetcher: f,
		parser:  p,
		logger:  logger.With("component", "scraper"),
		opts:    opts,
	}
}

func (s *HindScraper) Scrape(ctx context.Context, url string) models.Outcome {
	s.logger.Info("scraping product", "url", url)

	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		s.logger.Error("fetch failed", "url", url, "error", err)
		return models.Outcome{URL: url, Status: models.OutcomeFetchFailed, Error: err.Error(), Err: err}
	}

	result, err := s.parser.ExtractOffers(html, url, s.opts.MaxOffers)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrParseFailed, err)
		s.logger.Error("parse failed", "url", url, "error", err)
		return models.Outcome{URL: url, Status: models.OutcomeParseFailed, Error: err.Error(), Err: err}
	}

	if s.opts.SortOffers {
		result = parser.SortOffers(result)
	}

	if len(result.Offers) == 0 {
		s.logger.Warn("no offers found", "url", url, "product", result.ProductName)
		return models.Outcome{URL: url, Status: models.OutcomeNoOffers, Result: result}
	}

	for _, o := range result.Offers {
		s.logger.Info("offer",
			"product", result.ProductName,
			"position", o.Position,
			"store", o.StoreName,
			"price", o.PriceText)
	}

	return models.Outcome{URL: url, Status: models.OutcomeOK, Result: result}
}
