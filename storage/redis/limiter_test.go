package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusphere/edusphere/core/ratelimit"
)

func newTestLimiter(t *testing.T) *Limiter {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	l, err := NewLimiter(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLimiter_Check(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	cfg := ratelimit.Config{Window: time.Minute, MaxRequests: 3}
	t.Cleanup(func() { _ = l.Reset(ctx, key) })

	for i := 1; i <= cfg.MaxRequests; i++ {
		res, err := l.Check(ctx, key, cfg)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d", i)
		assert.Equal(t, cfg.MaxRequests-i, res.Remaining)
		assert.Equal(t, cfg.MaxRequests, res.Limit)
	}

	for i := 0; i < 2; i++ {
		res, err := l.Check(ctx, key, cfg)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.True(t, res.ResetAt.After(time.Now()))
		assert.True(t, res.RetryAfter > 0 && res.RetryAfter <= cfg.Window, "RetryAfter = %s", res.RetryAfter)
	}

	require.NoError(t, l.Reset(ctx, key))
	res, err := l.Check(ctx, key, cfg)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, cfg.MaxRequests-1, res.Remaining)
}

func TestLimiter_WindowRollover(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	cfg := ratelimit.Config{Window: 200 * time.Millisecond, MaxRequests: 1}
	t.Cleanup(func() { _ = l.Reset(ctx, key) })

	res, err := l.Check(ctx, key, cfg)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Check(ctx, key, cfg)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	time.Sleep(300 * time.Millisecond)
	res, err = l.Check(ctx, key, cfg)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiter_RetryAfterIgnoresClock(t *testing.T) {
	frozen := time.Now().Add(-time.Hour)
	l := newTestLimiter(t).WithClock(func() time.Time { return frozen })
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	cfg := ratelimit.Config{Window: time.Minute, MaxRequests: 1}
	t.Cleanup(func() { _ = l.Reset(ctx, key) })

	_, err := l.Check(ctx, key, cfg)
	require.NoError(t, err)
	res, err := l.Check(ctx, key, cfg)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.True(t, res.RetryAfter > 0 && res.RetryAfter <= cfg.Window, "RetryAfter = %s", res.RetryAfter)
	assert.Equal(t, frozen.Add(res.RetryAfter), res.ResetAt)
}
