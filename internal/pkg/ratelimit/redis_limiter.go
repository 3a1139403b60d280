package ratelimit

import (
	"context"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts in a shared Redis so the budget holds across
// instances. The INCR and PEXPIRE run in one pipeline; the key carries the
// window index, so a stale counter can never leak into the next window even
// if the expiry write is lost.
//
// Policy on any Redis failure is fail-open: the request is allowed and a
// warning is logged. Throttling here is best-effort abuse prevention, not a
// guarantee, and availability wins over strictness.
type RedisLimiter struct {
	client redis.Cmdable

	// now is replaceable for tests.
	now func() time.Time
}

func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		now:    time.Now,
	}
}

// CheckAndConsume implements Limiter.
func (r *RedisLimiter) CheckAndConsume(ctx context.Context, endpoint, clientKey string, cfg Config) Result {
	now := r.now()
	idx := windowIndex(now, cfg.Window)
	resetAt := windowResetAt(now, cfg.Window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", endpoint, clientKey, idx)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		fiberlog.Warnf("[RateLimit] redis unavailable, failing open for %s: %v", endpoint, err)
		return Result{
			Allowed:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit - 1,
			ResetAt:   resetAt,
		}
	}

	count := incr.Val()
	remaining := cfg.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(cfg.Limit),
		Limit:     cfg.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
