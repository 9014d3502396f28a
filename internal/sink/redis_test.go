package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func TestRedisSink_Write(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedisClient)

	var published []*redis.XAddArgs
	client.On("XAdd", ctx, mock.AnythingOfType("*redis.XAddArgs")).
		Run(func(args mock.Arguments) {
			published = append(published, args.Get(1).(*redis.XAddArgs))
		}).
		Return(nil)

	s := NewRedisSink(client, "stream:price_observations", 1000, testLogger())
	s.clock = fixedClock

	n, err := s.Write(ctx, sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, published, 2)

	first := published[0]
	assert.Equal(t, "stream:price_observations", first.Stream)
	assert.Equal(t, int64(1000), first.MaxLen)
	assert.True(t, first.Approx)

	values := first.Values.(map[string]interface{})
	assert.Equal(t, "price.observed", values["type"])
	assert.Equal(t, "Itsupply.ee", values["store_name"])
	assert.Equal(t, "725", values["price_value"])

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &row))
	assert.Equal(t, "https://www.hind.ee/p/lenovo-thinkpad-t14-gen-4", row["product_url"])
	assert.Equal(t, float64(1), row["position"])
}

func TestRedisSink_StopsOnError(t *testing.T) {
	ctx := context.Background()
	client := new(MockRedisClient)
	client.On("XAdd", ctx, mock.Anything).Return(nil).Once()
	client.On("XAdd", ctx, mock.Anything).Return(errors.New("NOAUTH Authentication required.")).Once()

	n, err := NewRedisSink(client, "prices", 0, testLogger()).Write(ctx, sampleResults())
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, ErrSinkUnauthenticated)
	client.AssertExpectations(t)
}
