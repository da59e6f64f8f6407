package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRedisLimiter(t *testing.T, config Config) (*RedisLimiter, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisLimiter(client, config, zaptest.NewLogger(t))
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	return limiter, mr, &clock
}

func TestRedisLimiter_RefusesOverLimit(t *testing.T) {
	limiter, _, _ := newRedisLimiter(t, Config{Limit: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are limited independently")
}

func TestRedisLimiter_WindowSlides(t *testing.T) {
	limiter, _, clock := newRedisLimiter(t, Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	*clock = clock.Add(2 * time.Minute)

	ok, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_KeyAndExpiry(t *testing.T) {
	limiter, mr, _ := newRedisLimiter(t, Config{Limit: 5, Window: 30 * time.Second})

	_, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	key := "backoffice:ratelimit:10.0.0.1"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	members, err := mr.ZMembers(key)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRedisLimiter_Defaults(t *testing.T) {
	limiter := NewRedisLimiter(nil, Config{Limit: 1}, zaptest.NewLogger(t))
	assert.Equal(t, time.Minute, limiter.config.Window)
	assert.Equal(t, "backoffice:ratelimit:k", limiter.makeKey("k"))

	custom := NewRedisLimiter(nil, Config{Limit: 1, KeyPrefix: "api"}, zaptest.NewLogger(t))
	assert.Equal(t, "api:k", custom.makeKey("k"))
}

func TestRedisLimiter_ErrorWhenRedisDown(t *testing.T) {
	limiter, mr, _ := newRedisLimiter(t, Config{Limit: 1, Window: time.Minute})
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "10.0.0.1")
	assert.False(t, ok)
	assert.Error(t, err)
}
