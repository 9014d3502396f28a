// Package fetcher retrieves the HTML of catalog pages.
package fetcher

import (
	"context"
	"errors"
)

var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Fetcher returns the HTML of the page at url. *browser.Browser renders
// pages headlessly; HTTPFetcher issues a plain GET.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Func adapts an ordinary function to the Fetcher interface.
type Func func(ctx context.Context, url string) (string, error)

func (f Func) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}
