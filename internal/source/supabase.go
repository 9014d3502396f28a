package source

import (
	"context"
	"fmt"

	"github.com/maltedev/price-monitor/internal/supabase"
)

// SupabaseSource reads one column of a Supabase table.
type SupabaseSource struct {
	client *supabase.Client
	table  string
	column string
}

func NewSupabaseSource(client *supabase.Client, table, column string) *SupabaseSource {
	return &SupabaseSource{client: client, table: table, column: column}
}

func (s *SupabaseSource) Products(ctx context.Context) ([]string, error) {
	records, err := s.client.SelectColumn(ctx, s.table, s.column)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		switch v := rec[s.column].(type) {
		case string:
			names = append(names, v)
		case nil:
		default:
			names = append(names, fmt.Sprint(v))
		}
	}

	return clean(names), nil
}
