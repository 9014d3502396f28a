package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/maltedev/price-monitor/internal/models"
)

var csvHeader = []string{
	"timestamp", "product_name", "product_url", "position",
	"store_name", "store_link", "price_text", "price_value",
}

// CSVSink appends rows to a local file, writing the header only when the
// file is new or empty.
type CSVSink struct {
	path   string
	logger *slog.Logger
	clock  func() time.Time
}

func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	return &CSVSink{
		path:   path,
		logger: logger.With("component", "csv_sink"),
		clock:  time.Now,
	}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(ctx context.Context, results []models.ProductResult) (int, error) {
	rows := stamp(results, s.clock)
	if len(rows) == 0 {
		return 0, nil
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, s.classify(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, s.classify(err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return 0, s.classify(err)
		}
	}

	for _, r := range rows {
		record := []string{
			r.Timestamp.Format(TimestampLayout),
			r.ProductName,
			r.ProductURL,
			strconv.Itoa(r.Position),
			r.StoreName,
			r.StoreLink,
			r.PriceText,
			r.PriceValue.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return 0, s.classify(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, s.classify(err)
	}

	s.logger.Info("rows appended", "file", s.path, "rows", len(rows))
	return len(rows), nil
}

func (s *CSVSink) classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return newError(s.Name(), ErrSinkUnauthenticated, err,
			fmt.Sprintf("check write permissions on %s", s.path))
	case errors.Is(err, fs.ErrNotExist):
		return newError(s.Name(), ErrSinkNotFound, err,
			fmt.Sprintf("the directory for CSV_FILE=%s does not exist", s.path))
	}
	return newError(s.Name(), ErrSinkUnavailable, err, "")
}
