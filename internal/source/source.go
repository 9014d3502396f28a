// Package source provides the product names the monitor walks through.
package source

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable marks a source that could not be read at all.
var ErrUnavailable = errors.New("product source unavailable")

type Source interface {
	Products(ctx context.Context) ([]string, error)
}

// Static returns a fixed list of names.
type Static []string

func (s Static) Products(ctx context.Context) ([]string, error) {
	return clean(s), nil
}

// clean trims names and drops blanks, preserving order.
func clean(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
