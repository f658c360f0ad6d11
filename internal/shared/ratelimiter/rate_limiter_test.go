package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter("test", 0, 0)
	for range 100 {
		require.NoError(t, rl.Wait(context.Background()))
	}

	var nilLimiter *RateLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background()))
}

func TestRateLimiter_BurstThenWait(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter("test", 20, 2)
	start := time.Now()
	for range 3 {
		require.NoError(t, rl.Wait(context.Background()))
	}
	// 3回目はおよそ 1/20 秒待たされる
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRateLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter("test", 0.1, 1)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
