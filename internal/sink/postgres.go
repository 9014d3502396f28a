package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maltedev/price-monitor/internal/models"
)

// PriceStore is satisfied by *database.DB.
type PriceStore interface {
	EnsurePriceTable(ctx context.Context, table string) error
	InsertPriceRows(ctx context.Context, table string, rows []models.Row) (int, error)
}

// PostgresSink inserts every row of a write in one transaction.
type PostgresSink struct {
	store   PriceStore
	table   string
	logger  *slog.Logger
	clock   func() time.Time
	ensured bool
}

func NewPostgresSink(store PriceStore, table string, logger *slog.Logger) *PostgresSink {
	return &PostgresSink{
		store:  store,
		table:  table,
		logger: logger.With("component", "postgres_sink"),
		clock:  time.Now,
	}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, results []models.ProductResult) (int, error) {
	rows := stamp(results, s.clock)
	if len(rows) == 0 {
		return 0, nil
	}

	if !s.ensured {
		if err := s.store.EnsurePriceTable(ctx, s.table); err != nil {
			return 0, s.classify(err)
		}
		s.ensured = true
	}

	n, err := s.store.InsertPriceRows(ctx, s.table, rows)
	if err != nil {
		return n, s.classify(err)
	}

	s.logger.Info("rows inserted", "table", s.table, "rows", n)
	return n, nil
}

func (s *PostgresSink) classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28000", "28P01":
			return newError(s.Name(), ErrSinkUnauthenticated, err, "check DB_USER and DB_PASSWORD")
		case "42P01":
			return newError(s.Name(), ErrSinkNotFound, err,
				fmt.Sprintf("table %s does not exist", s.table))
		case "42501":
			return newError(s.Name(), ErrSinkUnauthenticated, err,
				fmt.Sprintf("DB_USER lacks privileges on %s", s.table))
		}
	}
	return newError(s.Name(), ErrSinkUnavailable, err, "check DB_HOST and DB_PORT")
}
