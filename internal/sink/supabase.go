package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/price-monitor/internal/models"
	"github.com/maltedev/price-monitor/internal/supabase"
)

// SupabaseSink posts rows to a Supabase table through PostgREST.
type SupabaseSink struct {
	client *supabase.Client
	table  string
	logger *slog.Logger
	clock  func() time.Time
}

func NewSupabaseSink(client *supabase.Client, table string, logger *slog.Logger) *SupabaseSink {
	return &SupabaseSink{
		client: client,
		table:  table,
		logger: logger.With("component", "supabase_sink"),
		clock:  time.Now,
	}
}

// supabaseRow matches the laptop_prices table columns.
type supabaseRow struct {
	ProductName string      `json:"product_name"`
	ProductURL  string      `json:"product_url"`
	Position    int         `json:"position"`
	StoreName   string      `json:"store_name"`
	StoreLink   string      `json:"store_link"`
	PriceText   string      `json:"price_text"`
	PriceValue  json.Number `json:"price_value"`
	ScrapedAt   string      `json:"scraped_at"`
}

func toSupabaseRows(rows []models.Row) []supabaseRow {
	out := make([]supabaseRow, len(rows))
	for i, r := range rows {
		out[i] = supabaseRow{
			ProductName: r.ProductName,
			ProductURL:  r.ProductURL,
			Position:    r.Position,
			StoreName:   r.StoreName,
			StoreLink:   r.StoreLink,
			PriceText:   r.PriceText,
			PriceValue:  json.Number(r.PriceValue.String()),
			ScrapedAt:   r.Timestamp.Format(time.RFC3339),
		}
	}
	return out
}

func (s *SupabaseSink) Name() string { return "supabase" }

func (s *SupabaseSink) Write(ctx context.Context, results []models.ProductResult) (int, error) {
	rows := stamp(results, s.clock)
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.client.Insert(ctx, s.table, toSupabaseRows(rows)); err != nil {
		switch {
		case errors.Is(err, supabase.ErrUnauthorized):
			return 0, newError(s.Name(), ErrSinkUnauthenticated, err,
				"SUPABASE_KEY needs insert rights on "+s.table)
		case errors.Is(err, supabase.ErrNotFound):
			return 0, newError(s.Name(), ErrSinkNotFound, err,
				fmt.Sprintf("create table %s in Supabase first", s.table))
		}
		return 0, newError(s.Name(), ErrSinkUnavailable, err, "check SUPABASE_URL")
	}

	s.logger.Info("rows inserted", "table", s.table, "rows", len(rows))
	return len(rows), nil
}
