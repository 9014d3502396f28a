package source

import (
	"context"
	"fmt"
)

// NameQuerier is satisfied by *database.DB.
type NameQuerier interface {
	ProductNames(ctx context.Context, table, column string) ([]string, error)
}

// Connector opens the database on first use.
type Connector func(ctx context.Context) (NameQuerier, error)

// PostgresSource reads one column of a Postgres table. The connection is
// opened by Products, so an unreachable database surfaces as ErrUnavailable.
type PostgresSource struct {
	connect Connector
	table   string
	column  string
}

func NewPostgresSource(connect Connector, table, column string) *PostgresSource {
	return &PostgresSource{connect: connect, table: table, column: column}
}

func (s *PostgresSource) Products(ctx context.Context) ([]string, error) {
	db, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	names, err := db.ProductNames(ctx, s.table, s.column)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return clean(names), nil
}
