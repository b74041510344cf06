package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, max int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, max, 15*time.Minute), srv
}

func TestLimiter_BlocksAfterMax(t *testing.T) {
	limiter, _ := newLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ip:dage666")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, limiter.Fail(ctx, "ip:dage666"))
	}

	ok, err := limiter.Allow(ctx, "ip:dage666")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "other:dage666")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_WindowExpires(t *testing.T) {
	limiter, srv := newLimiter(t, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Fail(ctx, "s"))
	assert.Equal(t, 15*time.Minute, srv.TTL("login:fail:s"))

	ok, err := limiter.Allow(ctx, "s")
	require.NoError(t, err)
	assert.False(t, ok)

	srv.FastForward(16 * time.Minute)

	ok, err = limiter.Allow(ctx, "s")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_Reset(t *testing.T) {
	limiter, srv := newLimiter(t, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Fail(ctx, "s"))
	require.NoError(t, limiter.Reset(ctx, "s"))
	assert.False(t, srv.Exists("login:fail:s"))

	ok, err := limiter.Allow(ctx, "s")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newLimiter(t, 0)
	ctx := context.Background()

	require.NoError(t, limiter.Fail(ctx, "s"))
	ok, err := limiter.Allow(ctx, "s")
	require.NoError(t, err)
	assert.True(t, ok)
}
