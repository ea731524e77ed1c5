// Package redisstore shares rate limit counters between API instances through Redis.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/edusphere/edusphere/core/ratelimit"
)

// checkScript is the fixed-window step. A denied call leaves the counter untouched.
// KEYS[1] = counter key, ARGV[1] = window in ms, ARGV[2] = max requests.
// Returns {count, pttl, allowed}.
var checkScript = redis.NewScript(`
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
if count >= tonumber(ARGV[2]) then
  return {count, redis.call("PTTL", KEYS[1]), 0}
end
count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl, 1}
`)

type Limiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ ratelimit.Limiter = (*Limiter)(nil) // interface compliance check

// NewLimiter connects to redis at `addr` and checks the connection.
func NewLimiter(ctx context.Context, addr, password string, db int) (*Limiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &Limiter{client: client, prefix: "ratelimit:", now: time.Now}, nil
}

// WithClock replaces the time source used to turn TTLs into reset instants.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Check(ctx context.Context, key string, cfg ratelimit.Config) (ratelimit.Result, error) {
	windowMs := cfg.Window.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1000
	}
	res, err := checkScript.Run(ctx, l.client, []string{l.prefix + key}, windowMs, cfg.MaxRequests).Int64Slice()
	if err != nil {
		return ratelimit.Result{}, errors.Wrap(err, "running rate limit script")
	}
	if len(res) != 3 {
		return ratelimit.Result{}, errors.Errorf("unexpected rate limit script response: %v", res)
	}

	count, ttl, allowed := int(res[0]), res[1], res[2] == 1
	var wait time.Duration
	if ttl > 0 {
		wait = time.Duration(ttl) * time.Millisecond
	}
	remaining := cfg.MaxRequests - count
	if remaining < 0 || !allowed {
		remaining = 0
	}
	return ratelimit.Result{
		Allowed:    allowed,
		Limit:      cfg.MaxRequests,
		Remaining:  remaining,
		ResetAt:    l.now().Add(wait),
		RetryAfter: wait,
	}, nil
}

func (l *Limiter) Reset(ctx context.Context, key string) error {
	return errors.Wrap(l.client.Del(ctx, l.prefix+key).Err(), "resetting rate limit key")
}

func (l *Limiter) Close() error {
	return l.client.Close()
}
