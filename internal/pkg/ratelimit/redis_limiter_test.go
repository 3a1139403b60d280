package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisLimiterFailsOpenWhenRedisIsDown(t *testing.T) {
	// Port 1 is never a Redis; every pipeline exec fails immediately.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedisLimiter(client)
	cfg := Config{Limit: 3, Window: time.Minute}

	for i := 0; i < 10; i++ {
		res := r.CheckAndConsume(context.Background(), EndpointRestore, "1.2.3.4", cfg)
		assert.True(t, res.Allowed, "a store outage must never reject traffic")
		assert.Equal(t, cfg.Limit, res.Limit)
	}
}
