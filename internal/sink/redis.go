package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/price-monitor/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client the stream sink needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// RedisSink publishes every row as an entry of a Redis stream so other
// services can react to new prices.
type RedisSink struct {
	client RedisClient
	stream string
	maxLen int64
	logger *slog.Logger
	clock  func() time.Time
}

func NewRedisSink(client RedisClient, stream string, maxLen int64, logger *slog.Logger) *RedisSink {
	return &RedisSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.With("component", "redis_sink"),
		clock:  time.Now,
	}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, results []models.ProductResult) (int, error) {
	rows := stamp(results, s.clock)

	written := 0
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return written, newError(s.Name(), ErrSinkUnavailable, err, "")
		}

		args := &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: s.maxLen,
			Approx: s.maxLen > 0,
			Values: map[string]interface{}{
				"data":        string(data),
				"type":        "price.observed",
				"product_url": r.ProductURL,
				"store_name":  r.StoreName,
				"price_value": r.PriceValue.String(),
				"timestamp":   strconv.FormatInt(r.Timestamp.UnixNano(), 10),
			},
		}

		if _, err := s.client.XAdd(ctx, args).Result(); err != nil {
			return written, s.classify(err)
		}
		written++
	}

	if written > 0 {
		s.logger.Info("rows published", "stream", s.stream, "rows", written)
	}
	return written, nil
}

func (s *RedisSink) classify(err error) error {
	msg := err.Error()
	if strings.HasPrefix(msg, "NOAUTH") || strings.HasPrefix(msg, "WRONGPASS") {
		return newError(s.Name(), ErrSinkUnauthenticated, err, "check REDIS_PASSWORD")
	}
	return newError(s.Name(), ErrSinkUnavailable, err,
		fmt.Sprintf("failed to publish to %s; check REDIS_ADDR", s.stream))
}
