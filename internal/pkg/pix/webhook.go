package pix

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedPayload marks JSON that could not be decoded at all.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrMissingField marks structurally valid JSON lacking a required field.
	ErrMissingField = errors.New("webhook payload missing required field")
)

// ParseEvent decodes a raw webhook body into a normalized PaymentEvent.
// Signature verification must happen before this is called; parsing trusts
// nothing beyond JSON syntax.
func ParseEvent(payload []byte) (*PaymentEvent, error) {
	type rawPayload struct {
		Event string `json:"event"`
		Data  struct {
			PixQrCode struct {
				ID       string   `json:"id"`
				Amount   int      `json:"amount"`
				Status   string   `json:"status"`
				Metadata Metadata `json:"metadata"`
			} `json:"pixQrCode"`
			Payment struct {
				Amount int    `json:"amount"`
				Fee    int    `json:"fee"`
				Method string `json:"method"`
			} `json:"payment"`
		} `json:"data"`
		DevMode bool `json:"devMode"`
	}

	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	eventName := strings.TrimSpace(raw.Event)
	if eventName == "" {
		return nil, fmt.Errorf("%w: event", ErrMissingField)
	}
	paymentID := strings.TrimSpace(raw.Data.PixQrCode.ID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: pixQrCode.id", ErrMissingField)
	}

	amount := raw.Data.PixQrCode.Amount
	if amount == 0 {
		amount = raw.Data.Payment.Amount
	}

	return &PaymentEvent{
		Name:              eventName,
		Kind:              kindOf(eventName),
		ProviderPaymentID: paymentID,
		AmountCents:       amount,
		FeeCents:          raw.Data.Payment.Fee,
		Method:            strings.TrimSpace(raw.Data.Payment.Method),
		Status:            strings.TrimSpace(raw.Data.PixQrCode.Status),
		Metadata:          raw.Data.PixQrCode.Metadata,
		DevMode:           raw.DevMode,
	}, nil
}

func kindOf(eventName string) EventKind {
	switch strings.ToLower(strings.TrimSpace(eventName)) {
	case string(EventPaid):
		return EventPaid
	case string(EventExpired):
		return EventExpired
	case string(EventRefunded):
		return EventRefunded
	default:
		return EventUnknown
	}
}
