package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval throttles the lazy expiry sweep so a busy endpoint does not
// pay an O(n) scan on every request.
const sweepInterval = 60 * time.Second

type memoryEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the in-process fallback store, used when Redis is not
// configured or not reachable at startup. Entries are lazily expired: a
// counter whose window has passed is simply overwritten on the next hit, and
// a throttled sweep drops the rest.
type MemoryLimiter struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	lastSweep time.Time

	// now is replaceable for tests.
	now func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// CheckAndConsume implements Limiter with a fixed-window counter per
// endpoint:clientKey pair.
func (m *MemoryLimiter) CheckAndConsume(_ context.Context, endpoint, clientKey string, cfg Config) Result {
	now := m.now()
	key := endpoint + ":" + clientKey

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked(now)

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		resetAt := windowResetAt(now, cfg.Window)
		m.entries[key] = &memoryEntry{count: 1, resetAt: resetAt}
		return Result{
			Allowed:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit - 1,
			ResetAt:   resetAt,
		}
	}

	entry.count++
	remaining := cfg.Limit - entry.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   entry.count <= cfg.Limit,
		Limit:     cfg.Limit,
		Remaining: remaining,
		ResetAt:   entry.resetAt,
	}
}

// sweepLocked removes expired entries, at most once per sweepInterval.
// Callers hold m.mu.
func (m *MemoryLimiter) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for key, entry := range m.entries {
		if !now.Before(entry.resetAt) {
			delete(m.entries, key)
		}
	}
}
