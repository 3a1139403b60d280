package controllers

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"github.com/restaurafoto/RestauraFoto/app/repository"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/middleware"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/pix"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/session"
)

type createChargeRequest struct {
	PlanID string `json:"planId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type refundRequest struct {
	PaymentID string `json:"paymentId"`
}

// HandleListPlans returns the credit pack catalog.
func HandleListPlans(c *fiber.Ctx) error {
	plans := models.AllPlans()
	out := make([]fiber.Map, 0, len(plans))
	for _, p := range plans {
		out = append(out, fiber.Map{
			"id":       p.ID,
			"name":     p.Name,
			"photos":   p.Photos,
			"priceBrl": p.PriceBRL,
		})
	}
	return c.JSON(fiber.Map{"success": true, "plans": out})
}

// HandleCreatePixCharge creates a PIX QR-code charge for a catalog plan.
// Login is optional: anonymous buyers identify themselves by email, and the
// account is created when the settlement webhook arrives.
func HandleCreatePixCharge(c *fiber.Ctx) error {
	var req createChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Requisição inválida")
	}

	plan := models.GetPlanByID(req.PlanID)
	if plan == nil {
		return jsonError(c, fiber.StatusBadRequest, "Pacote inválido")
	}

	email := models.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if raw := session.GetSessionValue(c, "user_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			if user, err := repository.GetGlobalRepositories().User.GetByID(uint(id)); err == nil {
				email = user.Email
				if name == "" {
					name = user.Name
				}
			}
		}
	}
	if email == "" {
		return jsonError(c, fiber.StatusBadRequest, "Informe um e-mail para receber os créditos")
	}

	amountCents := int(math.Round(plan.PriceBRL * 100))
	meta := pix.Metadata{
		PlanID: plan.ID,
		Email:  email,
		Photos: strconv.Itoa(plan.Photos),
		Name:   name,
	}

	charge, err := pix.NewClientFromEnv().CreateCharge(c.Context(), plan.ID, amountCents, meta)
	if err != nil {
		fiberlog.Errorf("[Payment] pix charge for plan %s failed: %v", plan.ID, err)
		return jsonError(c, fiber.StatusBadGateway, "Não foi possível gerar a cobrança PIX. Tente novamente.")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"charge": fiber.Map{
			"id":           charge.ID,
			"brCode":       charge.BRCode,
			"brCodeBase64": charge.BRCodeImage,
			"amount":       charge.AmountCents,
			"expiresAt":    charge.ExpiresAt,
		},
	})
}

// HandleRefundRequest forwards a refund request for one of the caller's own
// payments to the processor. The local record is only flipped when the
// billing.refunded webhook confirms it.
func HandleRefundRequest(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var req refundRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.PaymentID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "Informe o paymentId")
	}

	payment, err := repository.GetGlobalRepositories().Payment.GetByProviderPaymentID(strings.TrimSpace(req.PaymentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "Pagamento não encontrado")
		}
		return serverError(c)
	}
	if payment.UserID != userID {
		return jsonError(c, fiber.StatusNotFound, "Pagamento não encontrado")
	}
	if payment.Status == models.PaymentStatusRefunded {
		return jsonError(c, fiber.StatusConflict, "Este pagamento já foi reembolsado")
	}

	if err := pix.NewClientFromEnv().RequestRefund(c.Context(), payment.ProviderPaymentID); err != nil {
		fiberlog.Errorf("[Payment] refund request for %s failed: %v", payment.ProviderPaymentID, err)
		return jsonError(c, fiber.StatusBadGateway, "Não foi possível solicitar o reembolso. Tente novamente.")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Reembolso solicitado. Você receberá um e-mail quando for processado.",
	})
}
