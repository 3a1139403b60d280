package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"github.com/restaurafoto/RestauraFoto/app/repository"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/middleware"
)

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func serverError(c *fiber.Ctx) error {
	return jsonError(c, fiber.StatusInternalServerError, "Algo deu errado. Tente novamente em instantes.")
}

// currentUser loads the authenticated user set by the auth middleware.
func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		return nil, fiber.ErrUnauthorized
	}
	return repository.GetGlobalRepositories().User.GetByID(userID)
}

// pagination reads page/limit query params and returns offset/limit capped to
// sane values.
func pagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
