package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	NotFound     = "Not found"
	UnknownStore = "Unknown"
	NoLink       = "No link found"
)

type Offer struct {
	Position   int             `json:"position"`
	StoreName  string          `json:"store_name"`
	StoreLink  string          `json:"store_link"`
	PriceText  string          `json:"price_text"`
	PriceValue decimal.Decimal `json:"price_value"`
}

type ProductResult struct {
	ProductName string  `json:"product_name"`
	ProductURL  string  `json:"product_url"`
	Offers      []Offer `json:"offers"`
}

// Row is one persisted (product, offer) pair.
type Row struct {
	ProductName string          `json:"product_name"`
	ProductURL  string          `json:"product_url"`
	Position    int             `json:"position"`
	StoreName   string          `json:"store_name"`
	StoreLink   string          `json:"store_link"`
	PriceText   string          `json:"price_text"`
	PriceValue  decimal.Decimal `json:"price_value"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Rows flattens results into one row per offer, all stamped with ts.
func Rows(results []ProductResult, ts time.Time) []Row {
	var rows []Row
	for _, r := range results {
		for _, o := range r.Offers {
			rows = append(rows, Row{
				ProductName: r.ProductName,
				ProductURL:  r.ProductURL,
				Position:    o.Position,
				StoreName:   o.StoreName,
				StoreLink:   o.StoreLink,
				PriceText:   o.PriceText,
				PriceValue:  o.PriceValue,
				Timestamp:   ts,
			})
		}
	}
	return rows
}

type OutcomeStatus string

const (
	OutcomeOK          OutcomeStatus = "ok"
	OutcomeNoOffers    OutcomeStatus = "no_offers"
	OutcomeFetchFailed OutcomeStatus = "fetch_failed"
	OutcomeParseFailed OutcomeStatus = "parse_failed"
)

// Outcome is the result of scraping a single URL.
type Outcome struct {
	URL    string         `json:"url"`
	Status OutcomeStatus  `json:"status"`
	Result *ProductResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Err    error          `json:"-"`
}

func (o Outcome) Failed() bool {
	return o.Status == OutcomeFetchFailed || o.Status == OutcomeParseFailed
}
