package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps one fixed-window counter per key in process memory.
// Counters are lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]*entry
}

var _ Limiter = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// WithClock replaces the store's time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *MemoryStore) Check(_ context.Context, key string, cfg Config) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(cfg.Window)}
		s.entries[key] = e
		return s.result(e, cfg, true, now), nil
	}
	if e.count >= cfg.MaxRequests {
		return s.result(e, cfg, false, now), nil
	}
	e.count++
	return s.result(e, cfg, true, now), nil
}

func (s *MemoryStore) result(e *entry, cfg Config, allowed bool, now time.Time) Result {
	remaining := cfg.MaxRequests - e.count
	if remaining < 0 || !allowed {
		remaining = 0
	}
	return Result{
		Allowed:    allowed,
		Limit:      cfg.MaxRequests,
		Remaining:  remaining,
		ResetAt:    e.resetAt,
		RetryAfter: retryAfter(now, e.resetAt),
	}
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Cleanup drops every entry whose window has passed and returns how many were dropped.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// Len is the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run calls Cleanup every `interval` until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration, onCleanup func(dropped int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.Cleanup()
			if onCleanup != nil {
				onCleanup(n)
			}
		}
	}
}
