// Package ratelimit throttles named classes of operations per caller within fixed windows.
package ratelimit

import (
	"context"
	"time"
)

// Config bounds an operation class to MaxRequests per Window.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Result is the decision of a single Check.
// RetryAfter is how long until the window rolls over, measured on the limiter's own clock.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// retryAfter is the wait until resetAt, never negative.
func retryAfter(now, resetAt time.Time) time.Duration {
	if resetAt.IsZero() || !now.Before(resetAt) {
		return 0
	}
	return resetAt.Sub(now)
}

// Limiter reports whether a keyed caller may proceed. A denial is a Result, never an error;
// errors only report store failures.
type Limiter interface {
	Check(ctx context.Context, key string, cfg Config) (Result, error)
	Reset(ctx context.Context, key string) error
}
