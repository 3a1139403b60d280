package pix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/restaurafoto/RestauraFoto/app/models"
	"github.com/restaurafoto/RestauraFoto/internal/pkg/mail"
)

// Service reconciles provider payment callbacks into local account state.
//
// The processing policy is fail-open on business anomalies: once the
// provider reports a payment as captured, the money is already taken, so a
// missing plan id or a price mismatch is logged for manual review and the
// customer still gets their credits. Hard rejections happen only before this
// layer (signature, parse).
type Service struct {
	repo     Repository
	notifier mail.Notifier
}

// NewService creates a reconciler from injected collaborators.
func NewService(repo Repository, notifier mail.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// NewServiceFromDB creates a reconciler from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), mail.NewSMTPNotifier())
}

// Outcome summarizes what a delivery actually did.
type Outcome struct {
	Duplicate      bool
	CreditsGranted int
	UserID         uint
	Warnings       []string
}

func (o *Outcome) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	o.Warnings = append(o.Warnings, msg)
	fiberlog.Warnf("[PixWebhook] %s", msg)
}

// RecordDelivery persists the raw delivery for audit and dedup. The provider
// sends no event id, so the payload hash serves as one.
func (s *Service) RecordDelivery(ctx context.Context, eventType string, payload []byte, signatureValid, devMode bool) (bool, *models.WebhookEvent, error) {
	_ = ctx
	sum := sha256.Sum256(payload)
	event := &models.WebhookEvent{
		Provider:        Provider,
		ProviderEventID: "hash:" + hex.EncodeToString(sum[:]),
		EventType:       strings.TrimSpace(eventType),
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
		DevMode:         devMode,
	}
	return s.repo.RecordWebhookEvent(event)
}

// MarkProcessed marks an audit row as handled and stores an optional error.
func (s *Service) MarkProcessed(ctx context.Context, eventID uint, processingErr error) error {
	_ = ctx
	if eventID == 0 {
		return errors.New("webhook event id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(eventID, errMsg)
}

// ProcessEvent applies one normalized payment event. Returned errors are
// internal failures (database down); business anomalies surface as warnings
// on the Outcome and never abort processing.
func (s *Service) ProcessEvent(ctx context.Context, evt *PaymentEvent) (*Outcome, error) {
	switch evt.Kind {
	case EventPaid:
		return s.processPaid(ctx, evt)
	case EventExpired:
		fiberlog.Infof("[PixWebhook] payment %s expired, nothing to do", evt.ProviderPaymentID)
		return &Outcome{}, nil
	case EventRefunded:
		return s.processRefunded(ctx, evt)
	default:
		fiberlog.Infof("[PixWebhook] ignoring event kind %q for payment %s", evt.Kind, evt.ProviderPaymentID)
		return &Outcome{}, nil
	}
}

func (s *Service) processPaid(ctx context.Context, evt *PaymentEvent) (*Outcome, error) {
	_ = ctx
	out := &Outcome{}
	amount := evt.AmountBRL()

	plan := models.GetPlanByID(evt.Metadata.PlanID)
	if strings.TrimSpace(evt.Metadata.PlanID) == "" {
		out.warnf("payment %s has no planId in metadata", evt.ProviderPaymentID)
	} else if plan == nil {
		out.warnf("payment %s references unknown plan %q", evt.ProviderPaymentID, evt.Metadata.PlanID)
	}

	credits := 0
	planName := ""
	if plan != nil {
		credits = plan.Photos
		planName = plan.Name
		if math.Abs(amount-plan.PriceBRL) > models.PriceToleranceBRL {
			out.warnf("payment %s amount R$%.2f does not match plan %s price R$%.2f, crediting anyway",
				evt.ProviderPaymentID, amount, plan.ID, plan.PriceBRL)
		}
	} else if n, err := strconv.Atoi(strings.TrimSpace(evt.Metadata.Photos)); err == nil && n > 0 {
		// Plan is unresolvable; fall back to the photo count echoed in
		// metadata rather than dropping a paid entitlement.
		credits = n
		planName = fmt.Sprintf("%d fotos", n)
	}

	email := models.NormalizeEmail(evt.Metadata.Email)
	if email == "" {
		out.warnf("payment %s has no email in metadata, cannot credit any account", evt.ProviderPaymentID)
		return out, nil
	}
	if credits <= 0 {
		out.warnf("payment %s resolves to zero credits, nothing to grant", evt.ProviderPaymentID)
		return out, nil
	}

	user, err := s.repo.GetOrCreateUserByEmail(email)
	if err != nil {
		return out, fmt.Errorf("resolve user for payment %s: %w", evt.ProviderPaymentID, err)
	}
	out.UserID = user.ID

	// The payment record is inserted before crediting: its unique provider
	// payment id is the idempotency gate that turns provider redelivery
	// into exactly-once crediting, including under concurrent deliveries.
	payment := &models.Payment{
		ProviderPaymentID: evt.ProviderPaymentID,
		UserID:            user.ID,
		PlanID:            strings.TrimSpace(evt.Metadata.PlanID),
		Credits:           credits,
		AmountBRL:         amount,
		FeeBRL:            float64(evt.FeeCents) / 100,
		Method:            models.PaymentMethodPix,
		Status:            models.PaymentStatusCompleted,
	}
	created, err := s.repo.CreatePaymentIfNotExists(payment)
	if err != nil {
		// Without the record we cannot tell a retry from a first delivery.
		// Crediting anyway risks a double grant; not crediting risks taking
		// the customer's money without the product. The latter is worse.
		out.warnf("payment %s record write failed (%v), crediting without dedup guarantee", evt.ProviderPaymentID, err)
	} else if !created {
		fiberlog.Infof("[PixWebhook] payment %s already credited, acknowledging redelivery", evt.ProviderPaymentID)
		out.Duplicate = true
		return out, nil
	}

	if err := s.repo.AddCredits(user.ID, credits); err != nil {
		out.warnf("payment %s credit grant failed: %v", evt.ProviderPaymentID, err)
	} else {
		out.CreditsGranted = credits
	}

	if name := strings.TrimSpace(evt.Metadata.Name); name != "" && user.Name == "" {
		if err := s.repo.UpdateProfile(user.ID, name); err != nil {
			out.warnf("payment %s profile update failed: %v", evt.ProviderPaymentID, err)
		}
	}

	if err := s.notifier.SendPaymentConfirmed(email, evt.Metadata.Name, planName, credits, amount); err != nil {
		// Best-effort only. The credit grant above stands regardless.
		out.warnf("payment %s confirmation email failed: %v", evt.ProviderPaymentID, err)
	}

	return out, nil
}

func (s *Service) processRefunded(ctx context.Context, evt *PaymentEvent) (*Outcome, error) {
	_ = ctx
	out := &Outcome{}
	amount := evt.AmountBRL()
	email := models.NormalizeEmail(evt.Metadata.Email)
	name := strings.TrimSpace(evt.Metadata.Name)

	payment, err := s.repo.GetPaymentByProviderID(evt.ProviderPaymentID)
	if err == nil {
		amount = payment.AmountBRL
		out.UserID = payment.UserID
		if err := s.repo.MarkPaymentRefunded(evt.ProviderPaymentID); err != nil {
			out.warnf("refund %s status update failed: %v", evt.ProviderPaymentID, err)
		}
		if user, lookupErr := s.repo.GetUserByID(payment.UserID); lookupErr == nil {
			email = user.Email
			if name == "" {
				name = user.Name
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		out.warnf("refund %s payment lookup failed: %v", evt.ProviderPaymentID, err)
	} else {
		out.warnf("refund %s has no matching payment record", evt.ProviderPaymentID)
	}

	// Credits granted for this payment are deliberately not deducted here;
	// clawback is a manual support decision, not a webhook side effect.
	if email == "" {
		out.warnf("refund %s has no resolvable email, skipping notification", evt.ProviderPaymentID)
		return out, nil
	}
	if err := s.notifier.SendRefundProcessed(email, name, amount); err != nil {
		out.warnf("refund %s notification email failed: %v", evt.ProviderPaymentID, err)
	}
	return out, nil
}
