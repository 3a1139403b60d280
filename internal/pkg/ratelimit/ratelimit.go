package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Endpoint names used for rate limit isolation. Two endpoints never share a
// counter, even for the same client.
const (
	EndpointUpload         = "upload"
	EndpointRestore        = "restore"
	EndpointAdjust         = "adjust"
	EndpointPixCreate      = "pix-create"
	EndpointRefund         = "refund"
	EndpointEmail          = "email"
	EndpointAuthCodeSend   = "auth-code-send"
	EndpointAuthCodeVerify = "auth-code-verify"
)

// Config is the fixed-window budget for one protected endpoint.
type Config struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of a single check-and-consume call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds returns the whole seconds a rejected client should wait,
// rounded up so the hint is never too early.
func (r Result) RetryAfterSeconds(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return secs
}

// Limiter is the single contract both backing stores implement. The check
// never fails: any internal error is swallowed as fail-open (allowed) with a
// logged warning, because abuse prevention must not take the product down
// with it.
type Limiter interface {
	CheckAndConsume(ctx context.Context, endpoint, clientKey string, cfg Config) Result
}

// Per-endpoint budgets. Values are part of the product's abuse-prevention
// contract; change them deliberately, not in passing.
var endpointConfigs = map[string]Config{
	EndpointUpload:         {Limit: 10, Window: time.Minute},
	EndpointRestore:        {Limit: 5, Window: time.Minute},
	EndpointAdjust:         {Limit: 5, Window: time.Minute},
	EndpointPixCreate:      {Limit: 5, Window: time.Minute},
	EndpointRefund:         {Limit: 3, Window: time.Minute},
	EndpointEmail:          {Limit: 5, Window: time.Minute},
	EndpointAuthCodeSend:   {Limit: 3, Window: time.Minute},
	EndpointAuthCodeVerify: {Limit: 5, Window: time.Minute},
}

// ConfigFor returns the budget for an endpoint, falling back to a
// conservative default for names missing from the table.
func ConfigFor(endpoint string) Config {
	if cfg, ok := endpointConfigs[endpoint]; ok {
		return cfg
	}
	return Config{Limit: 10, Window: time.Minute}
}

var (
	limiterMu      sync.RWMutex
	defaultLimiter Limiter
)

// SetLimiter selects the backing store once at startup (Redis when the cache
// is reachable, in-memory otherwise).
func SetLimiter(l Limiter) {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	defaultLimiter = l
}

// GetLimiter returns the configured limiter, lazily defaulting to the
// in-process store so the gate always exists.
func GetLimiter() Limiter {
	limiterMu.RLock()
	l := defaultLimiter
	limiterMu.RUnlock()
	if l != nil {
		return l
	}

	limiterMu.Lock()
	defer limiterMu.Unlock()
	if defaultLimiter == nil {
		defaultLimiter = NewMemoryLimiter()
	}
	return defaultLimiter
}

// windowIndex maps an instant to its fixed window bucket.
func windowIndex(now time.Time, window time.Duration) int64 {
	return now.UnixMilli() / window.Milliseconds()
}

// windowResetAt is the instant the bucket containing now rolls over.
func windowResetAt(now time.Time, window time.Duration) time.Time {
	idx := windowIndex(now, window)
	return time.UnixMilli((idx + 1) * window.Milliseconds())
}
