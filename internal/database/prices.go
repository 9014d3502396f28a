package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/price-monitor/internal/models"
)

const createPriceTableSQL = `
	CREATE TABLE IF NOT EXISTS %s (
		id           BIGSERIAL PRIMARY KEY,
		product_name TEXT NOT NULL,
		product_url  TEXT NOT NULL,
		position     INTEGER NOT NULL,
		store_name   TEXT NOT NULL,
		store_link   TEXT NOT NULL,
		price_text   TEXT NOT NULL,
		price_value  NUMERIC(12, 2) NOT NULL,
		observed_at  TIMESTAMPTZ NOT NULL
	)`

const insertPriceRowSQL = `
	INSERT INTO %s (
		product_name, product_url, position, store_name,
		store_link, price_text, price_value, observed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// EnsurePriceTable creates the observation table when it does not exist.
func (db *DB) EnsurePriceTable(ctx context.Context, table string) error {
	query := fmt.Sprintf(createPriceTableSQL, pgx.Identifier{table}.Sanitize())
	if _, err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// InsertPriceRows appends rows in a single transaction. Either every row
// is stored or none is.
func (db *DB) InsertPriceRows(ctx context.Context, table string, rows []models.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(insertPriceRowSQL, pgx.Identifier{table}.Sanitize())

	err := db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(query,
				r.ProductName, r.ProductURL, r.Position, r.StoreName,
				r.StoreLink, r.PriceText, r.PriceValue, r.Timestamp,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert price rows: %w", err)
	}

	return len(rows), nil
}

// ProductNames returns the non-null values of column in table, in storage
// order.
func (db *DB) ProductNames(ctx context.Context, table, column string) ([]string, error) {
	col := pgx.Identifier{column}.Sanitize()
	query := fmt.Sprintf("SELECT %s::text FROM %s WHERE %s IS NOT NULL",
		col, pgx.Identifier{table}.Sanitize(), col)

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query product names: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan product names: %w", err)
	}

	return names, nil
}
