package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/restaurafoto/RestauraFoto/internal/pkg/session"
)

const userIDLocalKey = "user_id"

// RequireAuth gates a route behind a valid login session.
func RequireAuth(c *fiber.Ctx) error {
	raw := session.GetSessionValue(c, "user_id")
	if raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Faça login para continuar",
		})
	}

	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Sessão inválida",
		})
	}

	c.Locals(userIDLocalKey, uint(userID))
	return c.Next()
}

// CurrentUserID returns the authenticated user id set by RequireAuth, or 0.
func CurrentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(userIDLocalKey).(uint); ok {
		return id
	}
	return 0
}
