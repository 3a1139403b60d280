package ratelimit

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/restaurafoto/RestauraFoto/internal/pkg/env"
)

// Setup selects the backing store once at startup: Redis when the cache
// client answers a ping, the in-process map otherwise.
func Setup(client *redis.Client) {
	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err == nil {
			SetLimiter(NewRedisLimiter(client))
			fiberlog.Info("[RateLimit] using Redis-backed store")
			return
		}
		fiberlog.Warn("[RateLimit] Redis not reachable, falling back to in-memory store")
	}
	SetLimiter(NewMemoryLimiter())
}

// ClientKey derives the throttling identity of a request. Forwarded-address
// headers are only honored when the deployment declares its proxy trusted
// (TRUSTED_PROXY_HEADERS=true); a client-supplied X-Forwarded-For on a bare
// deployment would otherwise let anyone mint fresh buckets at will.
func ClientKey(c *fiber.Ctx) string {
	if env.GetEnv("TRUSTED_PROXY_HEADERS", "false") == "true" {
		if fwd := strings.TrimSpace(c.Get("X-Forwarded-For")); fwd != "" {
			first := strings.TrimSpace(strings.Split(fwd, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
		if real := strings.TrimSpace(c.Get("X-Real-IP")); real != "" {
			if net.ParseIP(real) != nil {
				return real
			}
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}

// New returns a Fiber middleware guarding one named endpoint. Rejected
// requests get a 429 with a retry hint; allowed requests carry the usual
// X-RateLimit-* headers for client backoff.
func New(endpoint string) fiber.Handler {
	cfg := ConfigFor(endpoint)

	return func(c *fiber.Ctx) error {
		res := GetLimiter().CheckAndConsume(c.UserContext(), endpoint, ClientKey(c), cfg)

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retryAfter := res.RetryAfterSeconds(time.Now())
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"error":      "Muitas requisições. Aguarde um instante e tente novamente.",
				"retryAfter": retryAfter,
			})
		}

		return c.Next()
	}
}
