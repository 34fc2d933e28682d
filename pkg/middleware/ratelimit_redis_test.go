package middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLimiter(t *testing.T, limit int, window time.Duration) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisRateLimiter(client, limit, window, "ratelimit:"), mr
}

func TestRedisRateLimiterSlidingWindow(t *testing.T) {
	ctx := context.Background()
	limiter, _ := setupRedisLimiter(t, 3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d within the limit should pass", i+1)
	}

	allowed, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit should be rejected")

	// Other keys keep their own budget.
	allowed, err = limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, allowed)

	// Once the window slides past the recorded requests, the key recovers.
	time.Sleep(110 * time.Millisecond)
	allowed, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiterRejectionNotRecorded(t *testing.T) {
	ctx := context.Background()
	limiter, mr := setupRedisLimiter(t, 2, time.Minute)

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
	}

	members, err := mr.ZMembers("ratelimit:client-a")
	require.NoError(t, err)
	assert.Len(t, members, 2, "rejected requests must not extend the window")
}

func TestRedisRateLimiterConcurrentAllow(t *testing.T) {
	ctx := context.Background()
	limiter, _ := setupRedisLimiter(t, 5, time.Minute)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := limiter.Allow(ctx, "client-a")
			assert.NoError(t, err)
			if allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), admitted.Load(), "concurrent requests must not exceed the limit")
}

func TestRedisRateLimiterReset(t *testing.T) {
	ctx := context.Background()
	limiter, _ := setupRedisLimiter(t, 1, time.Minute)

	allowed, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "client-a"))

	allowed, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, allowed)
}
