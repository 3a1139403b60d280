package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/restaurafoto/RestauraFoto/app/repository"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/middleware"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/photostore"
)

// HandleMe returns the authenticated user's profile and credit balance.
func HandleMe(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Faça login para continuar")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"credits":    user.Credits,
			"trial_used": user.TrialUsed,
			"created_at": user.CreatedAt,
		},
	})
}

// HandleMyPhotos lists the caller's photos, newest first.
func HandleMyPhotos(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	offset, limit := pagination(c)

	photos, err := repository.GetGlobalRepositories().Photo.GetByUserID(userID, offset, limit)
	if err != nil {
		return serverError(c)
	}

	store := photostore.GetClient()
	out := make([]fiber.Map, 0, len(photos))
	for _, p := range photos {
		entry := fiber.Map{
			"uuid":       p.UUID,
			"status":     p.Status,
			"created_at": p.CreatedAt,
		}
		if store != nil {
			entry["originalUrl"] = store.PublicURL(p.ObjectKey)
			if p.RestoredKey != "" {
				entry["restoredUrl"] = store.PublicURL(p.RestoredKey)
			}
		}
		out = append(out, entry)
	}
	return c.JSON(fiber.Map{"success": true, "photos": out})
}

// HandleMyPayments lists the caller's payment history, newest first.
func HandleMyPayments(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	offset, limit := pagination(c)

	payments, err := repository.GetGlobalRepositories().Payment.ListByUserID(userID, offset, limit)
	if err != nil {
		return serverError(c)
	}

	out := make([]fiber.Map, 0, len(payments))
	for _, p := range payments {
		out = append(out, fiber.Map{
			"id":         p.ProviderPaymentID,
			"planId":     p.PlanID,
			"credits":    p.Credits,
			"amountBrl":  p.AmountBRL,
			"status":     p.Status,
			"created_at": p.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"success": true, "payments": out})
}
