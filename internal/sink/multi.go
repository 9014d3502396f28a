package sink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maltedev/price-monitor/internal/models"
)

// Multi writes to every sink in order. A failing sink does not stop the
// others; the returned count is the highest any sink reached.
type Multi struct {
	sinks  []Sink
	logger *slog.Logger
}

func NewMulti(logger *slog.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger.With("component", "multi_sink")}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Write(ctx context.Context, results []models.ProductResult) (int, error) {
	var (
		best int
		errs []error
	)

	for _, s := range m.sinks {
		n, err := s.Write(ctx, results)
		if n > best {
			best = n
		}
		if err != nil {
			m.logger.Error("sink write failed", "sink", s.Name(), "rows", n, "error", err)
			errs = append(errs, err)
		}
	}

	return best, errors.Join(errs...)
}
