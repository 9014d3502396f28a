package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	mu        sync.Mutex
	titles    []string
	values    [][]interface{}
	added     []string
	appended  [][]interface{}
	status    int
	valueOpts []string
	paths     []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": f.status, "message": http.StatusText(f.status)},
		})
		return
	}

	path := r.URL.Path
	f.paths = append(f.paths, path)
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.added = append(f.added, rq.AddSheet.Properties.Title)
			f.titles = append(f.titles, rq.AddSheet.Properties.Title)
		}
		json.NewEncoder(w).Encode(map[string]any{})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr sheets.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		f.values = append(f.values, vr.Values...)
		f.valueOpts = append(f.valueOpts, r.URL.Query().Get("valueInputOption"))
		json.NewEncoder(w).Encode(map[string]any{})

	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		resp := map[string]any{"range": "Prices!A1:E1"}
		if len(f.values) > 0 {
			resp["values"] = f.values[:1]
		}
		json.NewEncoder(w).Encode(resp)

	case r.Method == http.MethodGet:
		var sh []map[string]any
		for _, t := range f.titles {
			sh = append(sh, map[string]any{"properties": map[string]any{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sh})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestSheetsService(t *testing.T, fake *fakeSheets) *sheets.Service {
	t.Helper()

	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return svc
}

func newTestDriveService(t *testing.T, handler http.HandlerFunc) *drive.Service {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return svc
}

func newTestSheetsSink(t *testing.T, fake *fakeSheets) *SheetsSink {
	t.Helper()

	s := NewSheetsSink(newTestSheetsService(t, fake), "sheet-id", "Prices", testLogger())
	s.clock = fixedClock
	return s
}

func TestSheetsSink_CreatesWorksheetAndHeader(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Sheet1"}}
	s := newTestSheetsSink(t, fake)

	n, err := s.Write(context.Background(), sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"Prices"}, fake.added)
	require.Len(t, fake.appended, 3)
	assert.Equal(t, []interface{}{"product_name", "product_url", "store_name", "price_value", "timestamp"}, fake.appended[0])
	assert.Equal(t, []interface{}{
		"Lenovo ThinkPad T14 Gen 4",
		"https://www.hind.ee/p/lenovo-thinkpad-t14-gen-4",
		"Itsupply.ee",
		float64(725),
		"2025-03-14 09:30:00",
	}, fake.appended[1])
	assert.Equal(t, []string{"USER_ENTERED"}, fake.valueOpts)
}

func TestSheetsSink_ExistingSheetNoHeader(t *testing.T) {
	fake := &fakeSheets{
		titles: []string{"Prices"},
		values: [][]interface{}{{"product_name", "product_url", "store_name", "price_value", "timestamp"}},
	}
	s := newTestSheetsSink(t, fake)

	n, err := s.Write(context.Background(), sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Empty(t, fake.added)
	require.Len(t, fake.appended, 2)
	assert.Equal(t, "Klick.ee", fake.appended[1][2])
}

func TestSheetsSink_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, ErrSinkUnauthenticated},
		{http.StatusNotFound, ErrSinkNotFound},
		{http.StatusBadRequest, ErrSinkUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			s := newTestSheetsSink(t, &fakeSheets{status: tt.status})

			n, err := s.Write(context.Background(), sampleResults())
			assert.Zero(t, n)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSheetsSink_ResolvesSpreadsheetByName(t *testing.T) {
	var queries []string
	drv := newTestDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		queries = append(queries, r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]any{{"id": "resolved-id", "name": "Lenovo's"}},
		})
	})
	fake := &fakeSheets{titles: []string{"Prices"}}

	s := NewSheetsSinkByName(newTestSheetsService(t, fake), drv, "Lenovo's", "Prices", testLogger())
	s.clock = fixedClock

	for i := 0; i < 2; i++ {
		n, err := s.Write(context.Background(), sampleResults())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	require.Len(t, queries, 1)
	assert.Equal(t,
		`name = 'Lenovo\'s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false`,
		queries[0])

	require.NotEmpty(t, fake.paths)
	for _, p := range fake.paths {
		assert.Contains(t, p, "/v4/spreadsheets/resolved-id")
	}
}

func TestSheetsSink_SpreadsheetNameNotFound(t *testing.T) {
	drv := newTestDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"files": []any{}})
	})
	fake := &fakeSheets{}

	s := NewSheetsSinkByName(newTestSheetsService(t, fake), drv, "Lenovo", "Prices", testLogger())
	n, err := s.Write(context.Background(), sampleResults())

	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrSinkNotFound)
	assert.Contains(t, err.Error(), `"Lenovo"`)
	assert.NotEmpty(t, Hint(err))
	assert.Empty(t, fake.paths)
}

func TestNewDriveService_MissingCredentials(t *testing.T) {
	_, err := NewDriveService(context.Background(), "")
	assert.ErrorIs(t, err, ErrSinkUnauthenticated)
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	_, err := NewSheetsService(context.Background(), "")
	assert.ErrorIs(t, err, ErrSinkUnauthenticated)
	assert.Contains(t, Hint(err), "GOOGLE_APPLICATION_CREDENTIALS")

	_, err = NewSheetsService(context.Background(), "/nonexistent/key.json")
	assert.ErrorIs(t, err, ErrSinkUnauthenticated)
}
