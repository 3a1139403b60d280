package ratelimit

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThrottledApp(t *testing.T, endpoint string) *fiber.App {
	t.Helper()

	m := NewMemoryLimiter()
	frozen := windowStart(time.Minute)
	m.now = func() time.Time { return frozen }
	SetLimiter(m)
	t.Cleanup(func() { SetLimiter(NewMemoryLimiter()) })

	app := fiber.New()
	app.Post("/"+endpoint, New(endpoint), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})
	return app
}

func TestMiddlewareRejectsOverBudget(t *testing.T) {
	app := newThrottledApp(t, EndpointRestore)

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/restore", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
		assert.Equal(t, "5", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(4-i), resp.Header.Get("X-RateLimit-Remaining"))
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/restore", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	require.NoError(t, err, "Retry-After must be a whole number of seconds")
	assert.GreaterOrEqual(t, retryAfter, 0)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var parsed struct {
		Success    bool   `json:"success"`
		Error      string `json:"error"`
		RetryAfter *int   `json:"retryAfter"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.False(t, parsed.Success)
	assert.NotEmpty(t, parsed.Error)
	require.NotNil(t, parsed.RetryAfter)
	assert.Equal(t, retryAfter, *parsed.RetryAfter)
}

func TestMiddlewareSetsHeadersOnAllowedRequests(t *testing.T) {
	app := newThrottledApp(t, EndpointAuthCodeSend)

	resp, err := app.Test(httptest.NewRequest("POST", "/auth-code-send", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))
	assert.Empty(t, resp.Header.Get("Retry-After"))
}

func TestClientKeyIgnoresForwardingHeadersByDefault(t *testing.T) {
	t.Setenv("TRUSTED_PROXY_HEADERS", "false")

	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = ClientKey(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	_, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.NotEqual(t, "203.0.113.7", got, "spoofed header must not mint a fresh bucket")
	assert.NotEmpty(t, got)
}

func TestClientKeyHonorsTrustedProxyHeaders(t *testing.T) {
	t.Setenv("TRUSTED_PROXY_HEADERS", "true")

	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = ClientKey(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	_, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got)

	// A garbage forwarded value falls through to X-Real-IP.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	req.Header.Set("X-Real-IP", "198.51.100.9")
	_, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", got)
}
