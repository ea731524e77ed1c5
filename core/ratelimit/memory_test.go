package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore() (*MemoryStore, *clock) {
	clk := &clock{now: epoch}
	return NewMemoryStore().WithClock(clk.Now), clk
}

func TestMemoryStore_Check_window(t *testing.T) {
	ctx := context.Background()
	store, clk := newTestStore()
	cfg := Config{Window: time.Second, MaxRequests: 3}

	for i, wantRemaining := range []int{2, 1, 0} {
		res, err := store.Check(ctx, "k", cfg)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d", i+1)
		assert.Equal(t, wantRemaining, res.Remaining, "call %d", i+1)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, epoch.Add(time.Second), res.ResetAt)
		clk.Advance(100 * time.Millisecond)
	}

	res, err := store.Check(ctx, "k", cfg)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, epoch.Add(time.Second), res.ResetAt)

	// a denied call does not consume the next window
	clk.Advance(700 * time.Millisecond) // now == reset instant
	res, err = store.Check(ctx, "k", cfg)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, cfg.MaxRequests-1, res.Remaining)
	assert.Equal(t, clk.Now().Add(time.Second), res.ResetAt)
}

func TestMemoryStore_Check_keysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	cfg := Config{Window: time.Minute, MaxRequests: 1}

	res, _ := store.Check(ctx, "a", cfg)
	assert.True(t, res.Allowed)
	res, _ = store.Check(ctx, "a", cfg)
	assert.False(t, res.Allowed)
	res, _ = store.Check(ctx, "b", cfg)
	assert.True(t, res.Allowed)
}

func TestMemoryStore_Check_concurrent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	cfg := Config{Window: time.Minute, MaxRequests: 50}
	extra := 30

	var allowed, denied int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < cfg.MaxRequests+extra; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := store.Check(ctx, "hot", cfg)
			if err != nil {
				t.Error(err)
				return
			}
			if res.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&denied, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, cfg.MaxRequests, allowed)
	assert.EqualValues(t, extra, denied)
}

func TestMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	cfg := Config{Window: time.Minute, MaxRequests: 1}

	_, _ = store.Check(ctx, "k", cfg)
	res, _ := store.Check(ctx, "k", cfg)
	require.False(t, res.Allowed)

	require.NoError(t, store.Reset(ctx, "k"))
	assert.Equal(t, 0, store.Len())
	res, _ = store.Check(ctx, "k", cfg)
	assert.True(t, res.Allowed)

	// unknown keys are fine
	assert.NoError(t, store.Reset(ctx, "nope"))
}

func TestMemoryStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	store, clk := newTestStore()

	_, _ = store.Check(ctx, "short", Config{Window: time.Minute, MaxRequests: 5})
	_, _ = store.Check(ctx, "long", Config{Window: time.Hour, MaxRequests: 5})
	require.Equal(t, 2, store.Len())

	assert.Equal(t, 0, store.Cleanup())

	clk.Advance(time.Minute)
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 1, store.Len())

	clk.Advance(time.Hour)
	assert.Equal(t, 1, store.Cleanup())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Run(t *testing.T) {
	store, clk := newTestStore()
	_, _ = store.Check(context.Background(), "k", Config{Window: time.Millisecond, MaxRequests: 1})
	clk.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	dropped := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond, func(n int) {
			if n > 0 {
				select {
				case dropped <- n:
				default:
				}
			}
		})
		close(done)
	}()

	select {
	case n := <-dropped:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup never ran")
	}
	cancel()
	<-done
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Check_retryAfter(t *testing.T) {
	ctx := context.Background()
	store, clk := newTestStore()
	cfg := Config{Window: 90 * time.Second, MaxRequests: 1}

	res, err := store.Check(ctx, "k", cfg)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, res.RetryAfter)

	clk.Advance(30 * time.Second)
	res, err = store.Check(ctx, "k", cfg)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 60*time.Second, res.RetryAfter)
	assert.Equal(t, res.ResetAt, clk.Now().Add(res.RetryAfter))
}

func Test_retryAfter(t *testing.T) {
	resetAt := epoch.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, retryAfter(epoch, resetAt))
	assert.Equal(t, time.Duration(0), retryAfter(resetAt, resetAt))
	assert.Equal(t, time.Duration(0), retryAfter(epoch.Add(2*time.Minute), resetAt))
	assert.Equal(t, time.Duration(0), retryAfter(epoch, time.Time{}))
}

func TestPolicies(t *testing.T) {
	tests := []struct {
		policy Policy
		want   Config
	}{
		{APIDefault, Config{Window: 15 * time.Minute, MaxRequests: 100}},
		{AuthLogin, Config{Window: 15 * time.Minute, MaxRequests: 5}},
		{FileUpload, Config{Window: time.Hour, MaxRequests: 10}},
		{EmailSend, Config{Window: time.Hour, MaxRequests: 20}},
		{AIAPI, Config{Window: time.Hour, MaxRequests: 50}},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			got, err := tt.policy.Config()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Policy("nope").Config()
	assert.Equal(t, ErrUnknownPolicy, err)
	assert.Equal(t, "auth_login:ip:10.0.0.1", AuthLogin.Key(Identifier("", "10.0.0.1")))
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "user:u1", Identifier("u1", "10.0.0.1"))
	assert.Equal(t, "ip:10.0.0.1", Identifier("", "10.0.0.1"))
	assert.Equal(t, "anonymous", Identifier("", ""))
}
