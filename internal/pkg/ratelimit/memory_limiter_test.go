package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// windowStart returns an instant aligned to the start of a fixed window so
// tests never straddle a rollover.
func windowStart(window time.Duration) time.Time {
	return time.UnixMilli(windowIndex(time.Unix(1_700_000_000, 0), window) * window.Milliseconds())
}

func TestMemoryLimiterEnforcesBudget(t *testing.T) {
	cfg := Config{Limit: 5, Window: time.Minute}
	current := windowStart(cfg.Window)

	m := NewMemoryLimiter()
	m.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		res := m.CheckAndConsume(context.Background(), EndpointRestore, "1.2.3.4", cfg)
		require.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, res.Limit)
		assert.Equal(t, 4-i, res.Remaining)
	}

	res := m.CheckAndConsume(context.Background(), EndpointRestore, "1.2.3.4", cfg)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestMemoryLimiterWindowRollover(t *testing.T) {
	cfg := Config{Limit: 5, Window: time.Second}
	base := windowStart(cfg.Window)
	current := base

	m := NewMemoryLimiter()
	m.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		res := m.CheckAndConsume(context.Background(), EndpointRestore, "1.2.3.4", cfg)
		require.True(t, res.Allowed)
	}

	// Last instant of the window: still over budget.
	current = base.Add(999 * time.Millisecond)
	res := m.CheckAndConsume(context.Background(), EndpointRestore, "1.2.3.4", cfg)
	assert.False(t, res.Allowed)

	// First instant of the next window: fresh budget.
	current = base.Add(time.Second)
	res = m.CheckAndConsume(context.Background(), EndpointRestore, "1.2.3.4", cfg)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, base.Add(2*time.Second).UnixMilli(), res.ResetAt.UnixMilli())
}

func TestMemoryLimiterIsolatesEndpointsAndClients(t *testing.T) {
	cfg := Config{Limit: 3, Window: time.Minute}
	current := windowStart(cfg.Window)

	m := NewMemoryLimiter()
	m.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		require.True(t, m.CheckAndConsume(context.Background(), EndpointRefund, "1.2.3.4", cfg).Allowed)
	}
	require.False(t, m.CheckAndConsume(context.Background(), EndpointRefund, "1.2.3.4", cfg).Allowed)

	// Same client, different endpoint: untouched budget.
	assert.True(t, m.CheckAndConsume(context.Background(), EndpointUpload, "1.2.3.4", cfg).Allowed)
	// Same endpoint, different client: untouched budget.
	assert.True(t, m.CheckAndConsume(context.Background(), EndpointRefund, "5.6.7.8", cfg).Allowed)
}

func TestMemoryLimiterSweepDropsExpiredEntries(t *testing.T) {
	cfg := Config{Limit: 5, Window: time.Second}
	current := windowStart(cfg.Window)

	m := NewMemoryLimiter()
	m.now = func() time.Time { return current }

	m.CheckAndConsume(context.Background(), EndpointRestore, "1.2.3.4", cfg)
	m.CheckAndConsume(context.Background(), EndpointRestore, "5.6.7.8", cfg)
	require.Len(t, m.entries, 2)

	// Both windows have long expired once the sweep throttle allows a pass.
	current = current.Add(sweepInterval + time.Second)
	m.CheckAndConsume(context.Background(), EndpointUpload, "9.9.9.9", cfg)
	assert.Len(t, m.entries, 1)
}

func TestResultRetryAfterSecondsRoundsUp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	res := Result{ResetAt: now.Add(1500 * time.Millisecond)}
	assert.Equal(t, 2, res.RetryAfterSeconds(now))

	res = Result{ResetAt: now.Add(-time.Second)}
	assert.Equal(t, 0, res.RetryAfterSeconds(now))
}

func TestConfigForKnownEndpoints(t *testing.T) {
	tests := []struct {
		endpoint string
		limit    int
	}{
		{EndpointUpload, 10},
		{EndpointRestore, 5},
		{EndpointAdjust, 5},
		{EndpointPixCreate, 5},
		{EndpointRefund, 3},
		{EndpointEmail, 5},
		{EndpointAuthCodeSend, 3},
		{EndpointAuthCodeVerify, 5},
	}
	for _, tt := range tests {
		cfg := ConfigFor(tt.endpoint)
		assert.Equal(t, tt.limit, cfg.Limit, tt.endpoint)
		assert.Equal(t, time.Minute, cfg.Window, tt.endpoint)
	}

	// Unknown names get a conservative default instead of running unthrottled.
	cfg := ConfigFor("does-not-exist")
	assert.Equal(t, 10, cfg.Limit)
	assert.Equal(t, time.Minute, cfg.Window)
}
