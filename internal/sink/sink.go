// Package sink persists scraped offers, one row per (product, offer) pair.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maltedev/price-monitor/internal/models"
)

// TimestampLayout is used wherever the destination stores text timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	ErrSinkUnauthenticated = errors.New("sink rejected credentials")
	ErrSinkNotFound        = errors.New("sink destination not found")
	ErrSinkUnavailable     = errors.New("sink unavailable")
)

// Sink appends results to a destination and reports how many rows it wrote.
// Rows written before a failure stay written.
type Sink interface {
	Name() string
	Write(ctx context.Context, results []models.ProductResult) (int, error)
}

// Error is a classified sink failure with a hint for the operator.
type Error struct {
	Sink string
	Kind error
	Err  error
	hint string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s sink: %v: %v", e.Sink, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func (e *Error) Hint() string {
	return e.hint
}

func newError(sink string, kind, err error, hint string) *Error {
	return &Error{Sink: sink, Kind: kind, Err: err, hint: hint}
}

// Hint returns the operator hint of the first sink error in err's chain.
func Hint(err error) string {
	var sinkErr *Error
	if errors.As(err, &sinkErr) {
		return sinkErr.Hint()
	}
	return ""
}

func stamp(results []models.ProductResult, clock func() time.Time) []models.Row {
	if clock == nil {
		clock = time.Now
	}
	return models.Rows(results, clock())
}
