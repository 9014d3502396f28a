package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/price-monitor/internal/models"
)

var (
	ErrFetchFailed = errors.New("failed to fetch product page")
	ErrParseFailed = errors.New("failed to parse product page")
)

// Scraper turns one catalog URL into a typed outcome. Implementations never
// return an error; failures are carried by the outcome status.
type Scraper interface {
	Scrape(ctx context.Context, url string) models.Outcome
}

type Options struct {
	MaxOffers  int
	SortOffers bool
}
