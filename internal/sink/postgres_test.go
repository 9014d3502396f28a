package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/maltedev/price-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPriceStore struct {
	mock.Mock
}

func (m *MockPriceStore) EnsurePriceTable(ctx context.Context, table string) error {
	return m.Called(ctx, table).Error(0)
}

func (m *MockPriceStore) InsertPriceRows(ctx context.Context, table string, rows []models.Row) (int, error) {
	args := m.Called(ctx, table, rows)
	return args.Int(0), args.Error(1)
}

func TestPostgresSink_Write(t *testing.T) {
	ctx := context.Background()
	store := new(MockPriceStore)
	store.On("EnsurePriceTable", ctx, "price_observations").Return(nil).Once()
	store.On("InsertPriceRows", ctx, "price_observations", mock.MatchedBy(func(rows []models.Row) bool {
		return len(rows) == 2 && rows[0].Timestamp.Equal(fixedTime) && rows[1].StoreName == "Klick.ee"
	})).Return(2, nil).Twice()

	s := NewPostgresSink(store, "price_observations", testLogger())
	s.clock = fixedClock

	for i := 0; i < 2; i++ {
		n, err := s.Write(ctx, sampleResults())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}

	store.AssertExpectations(t)
}

func TestPostgresSink_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad password", &pgconn.PgError{Code: "28P01"}, ErrSinkUnauthenticated},
		{"missing table", &pgconn.PgError{Code: "42P01"}, ErrSinkNotFound},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrSinkUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := new(MockPriceStore)
			store.On("EnsurePriceTable", ctx, "prices").Return(nil)
			store.On("InsertPriceRows", ctx, "prices", mock.Anything).Return(0, tt.err)

			_, err := NewPostgresSink(store, "prices", testLogger()).Write(ctx, sampleResults())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.NotEmpty(t, Hint(err))
		})
	}
}

func TestPostgresSink_NoRowsSkipsDatabase(t *testing.T) {
	store := new(MockPriceStore)

	n, err := NewPostgresSink(store, "prices", testLogger()).Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	store.AssertNotCalled(t, "EnsurePriceTable", mock.Anything, mock.Anything)
}
