package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/restaurafoto/RestauraFoto/internal/pkg/database"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/env"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/pix"
)

// HandlePixWebhook consumes settlement callbacks from the PIX processor.
//
// Response contract: 401 before any parsing when authentication fails, 400
// on an undecodable or incomplete payload, and 200 for everything after
// that. A 200 is the only answer that stops provider redelivery, and
// redelivery against a payment handler is exactly what we do not want;
// internal processing failures are logged and reconciled manually instead of
// being signaled back.
func HandlePixWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	secret := env.GetEnv("PIX_WEBHOOK_SECRET", "")

	if !pix.VerifyWebhookAuth(rawBody, c.Get("x-webhook-signature"), c.Query("webhookSecret"), secret) {
		fiberlog.Warnf("[PixWebhook] rejected unauthenticated delivery from %s", c.IP())
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	evt, err := pix.ParseEvent(rawBody)
	if err != nil {
		if errors.Is(err, pix.ErrMalformedPayload) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_json"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := pix.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, stored, recErr := svc.RecordDelivery(ctx, evt.Name, rawBody, true, evt.DevMode)
	if recErr != nil {
		// Audit is best-effort; the payment-level idempotency gate still
		// protects crediting below.
		fiberlog.Warnf("[PixWebhook] audit write failed: %v", recErr)
	} else if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "event": evt.Name, "duplicate": true})
	}

	outcome, procErr := svc.ProcessEvent(ctx, evt)
	if stored != nil {
		_ = svc.MarkProcessed(ctx, stored.ID, procErr)
	}
	if procErr != nil {
		fiberlog.Errorf("[PixWebhook] processing %s failed: %v", evt.ProviderPaymentID, procErr)
	}

	resp := fiber.Map{"received": true, "event": evt.Name}
	if outcome != nil && outcome.Duplicate {
		resp["duplicate"] = true
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
