package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vincent/pkg/logger"
)

func newLimiter(t *testing.T, limit int, fallback bool) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	rl, err := NewRedisRateLimiter(client, &RateLimiterConfig{
		Limit:               limit,
		Window:              time.Minute,
		EnableLocalFallback: fallback,
		KeyPrefix:           "test",
	}, logger.NewNoopLogger())
	require.NoError(t, err)
	return rl, s
}

func TestRedisRateLimiter_FixedWindow(t *testing.T) {
	rl, s := newLimiter(t, 3, false)
	ctx := context.Background()
	pkp := "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

	for i := 0; i < 3; i++ {
		res, err := rl.Allow(ctx, pkp)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := rl.Allow(ctx, pkp)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.True(t, res.ResetAt.After(time.Now()))

	other, err := rl.Allow(ctx, "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	s.FastForward(time.Minute + time.Second)
	res, err = rl.Allow(ctx, pkp)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "window expired")
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	rl, _ := newLimiter(t, 1, false)
	ctx := context.Background()

	_, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	res, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	require.NoError(t, rl.ResetLimit(ctx, "k"))
	res, err = rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisRateLimiter_RedisDown(t *testing.T) {
	t.Run("fallback to local buckets", func(t *testing.T) {
		rl, s := newLimiter(t, 2, true)
		s.Close()

		res, err := rl.Allow(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("error without fallback", func(t *testing.T) {
		rl, s := newLimiter(t, 2, false)
		s.Close()

		_, err := rl.Allow(context.Background(), "k")
		assert.Error(t, err)
	})
}

func TestNewRedisRateLimiter_Validation(t *testing.T) {
	_, err := NewRedisRateLimiter(nil, nil, nil)
	assert.Error(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	_, err = NewRedisRateLimiter(client, &RateLimiterConfig{Limit: 0, Window: time.Second}, nil)
	assert.Error(t, err)
}

func TestMemoryRateLimiter(t *testing.T) {
	rl, err := NewMemoryRateLimiter(&RateLimiterConfig{Limit: 2, Window: time.Hour})
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := rl.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.True(t, res.ResetAt.After(time.Now()))

	_, err = NewMemoryRateLimiter(&RateLimiterConfig{Limit: 0, Window: time.Hour})
	assert.Error(t, err)
}

func TestMemoryRateLimiter_Refill(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl, err := NewMemoryRateLimiter(&RateLimiterConfig{
		Limit:  1,
		Window: time.Second,
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	ctx := context.Background()

	res, _ := rl.Allow(ctx, "k")
	assert.True(t, res.Allowed)
	res, _ = rl.Allow(ctx, "k")
	assert.False(t, res.Allowed)
	assert.Equal(t, now.Add(time.Second), res.ResetAt)

	now = now.Add(time.Second)
	res, _ = rl.Allow(ctx, "k")
	assert.True(t, res.Allowed)
}

func TestMemoryRateLimiter_EvictsLeastRecentlyUsed(t *testing.T) {
	rl, err := NewMemoryRateLimiter(&RateLimiterConfig{Limit: 1, Window: time.Hour, MaxLocalKeys: 2})
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"pkp:a", "pkp:b", "pkp:c"} {
		res, err := rl.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	assert.Equal(t, 2, rl.Keys())

	// pkp:a was evicted and starts over with a full bucket
	res, _ := rl.Allow(ctx, "pkp:a")
	assert.True(t, res.Allowed)
	res, _ = rl.Allow(ctx, "pkp:c")
	assert.False(t, res.Allowed)
}
