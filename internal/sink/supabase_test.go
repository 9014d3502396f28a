package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maltedev/price-monitor/internal/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseSink_Write(t *testing.T) {
	var rows []map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/laptop_prices", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	s := NewSupabaseSink(supabase.NewClient(ts.URL, "key"), "laptop_prices", testLogger())
	s.clock = fixedClock

	n, err := s.Write(context.Background(), sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, rows, 2)
	assert.Equal(t, "Itsupply.ee", rows[0]["store_name"])
	assert.Equal(t, 725.0, rows[0]["price_value"])
	assert.Equal(t, 1.0, rows[0]["position"])
	assert.Equal(t, "2025-03-14T09:30:00Z", rows[0]["scraped_at"])
	assert.NotContains(t, rows[0], "timestamp")
	assert.NotContains(t, rows[1], "timestamp")
}

func TestSupabaseSink_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrSinkUnauthenticated},
		{http.StatusNotFound, ErrSinkNotFound},
		{http.StatusBadRequest, ErrSinkUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			s := NewSupabaseSink(supabase.NewClient(ts.URL, "key"), "laptop_prices", testLogger())
			_, err := s.Write(context.Background(), sampleResults())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
