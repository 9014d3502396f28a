package parser

import (
	"github.com/maltedev/price-monitor/internal/models"
)

const DefaultMaxOffers = 3

// Parser turns a fetched catalog page into a ProductResult.
type Parser interface {
	ExtractOffers(html string, url string, maxOffers int) (*models.ProductResult, error)
}
