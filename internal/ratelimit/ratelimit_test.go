package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRateLimiter_ZeroDelayDoesNotBlock(t *testing.T) {
	r := NewSimpleRateLimiter(0, 0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSimpleRateLimiter_SpacesCalls(t *testing.T) {
	r := NewSimpleRateLimiter(50*time.Millisecond, 50*time.Millisecond)

	require.NoError(t, r.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestSimpleRateLimiter_ContextCancelled(t *testing.T) {
	r := NewSimpleRateLimiter(time.Minute, time.Minute)
	require.NoError(t, r.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}

func TestSimpleRateLimiter_IgnoresOutcomes(t *testing.T) {
	var r RateLimiter = NewSimpleRateLimiter(10*time.Millisecond, 20*time.Millisecond)

	for i := 0; i < 5; i++ {
		r.RecordError()
	}
	r.RecordSuccess()

	minDelay, maxDelay := r.(*SimpleRateLimiter).Delays()
	assert.Equal(t, 10*time.Millisecond, minDelay)
	assert.Equal(t, 20*time.Millisecond, maxDelay)
}

func TestAdaptiveRateLimiter_BacksOffAfterErrors(t *testing.T) {
	a := NewAdaptiveRateLimiter(2*time.Second, 4*time.Second)

	a.RecordError()
	a.RecordError()
	minDelay, maxDelay := a.Delays()
	assert.Equal(t, 2*time.Second, minDelay)

	a.RecordError()
	minDelay, maxDelay = a.Delays()
	assert.Equal(t, 3*time.Second, minDelay)
	assert.Equal(t, 6*time.Second, maxDelay)

	for i := 0; i < 6; i++ {
		a.RecordSuccess()
	}
	minDelay, _ = a.Delays()
	assert.Equal(t, 2700*time.Millisecond, minDelay)
}

func TestAdaptiveRateLimiter_NeverBelowConfiguredMinimum(t *testing.T) {
	a := NewAdaptiveRateLimiter(0, 0)

	for i := 0; i < 12; i++ {
		a.RecordSuccess()
	}

	minDelay, maxDelay := a.Delays()
	assert.Zero(t, minDelay)
	assert.Zero(t, maxDelay)
}
