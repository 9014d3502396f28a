// Package supabase is a minimal PostgREST client for a Supabase project.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultPageSize = 1000

var (
	ErrUnauthorized = errors.New("supabase rejected the API key")
	ErrNotFound     = errors.New("supabase table not found")
)

type Client struct {
	http     *resty.Client
	pageSize int
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

func NewClient(baseURL, key string) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/") + "/rest/v1")
	client.SetTimeout(30 * time.Second)
	client.SetHeader("apikey", key)
	client.SetAuthToken(key)
	client.SetHeader("Accept", "application/json")

	return &Client{http: client, pageSize: defaultPageSize}
}

// SelectColumn returns every value of column in table, following PostgREST
// pagination until a short page is returned. The body is decoded as JSON
// whatever Content-Type the server reports.
func (c *Client) SelectColumn(ctx context.Context, table, column string) ([]map[string]any, error) {
	var all []map[string]any

	for offset := 0; ; offset += c.pageSize {
		var page []map[string]any
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("select", column).
			SetHeader("Range-Unit", "items").
			SetHeader("Range", fmt.Sprintf("%d-%d", offset, offset+c.pageSize-1)).
			Get("/" + table)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", table, err)
		}
		if resp.IsError() {
			return nil, &APIError{StatusCode: resp.StatusCode(), Message: resp.String()}
		}
		if err := json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", table, err)
		}

		all = append(all, page...)
		if len(page) < c.pageSize {
			return all, nil
		}
	}
}

// Insert posts rows to table in one request.
func (c *Client) Insert(ctx context.Context, table string, rows any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal").
		SetBody(rows).
		Post("/" + table)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Message: resp.String()}
	}
	return nil
}
