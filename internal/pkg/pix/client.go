package pix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/restaurafoto/RestauraFoto/internal/pkg/env"
)

const defaultPixAPIBaseURL = "https://api.abacatepay.com"

// Client talks to the PIX payment processor's HTTP API. Charges settle
// asynchronously; their outcome arrives through the webhook, never through
// this client.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Charge is a created PIX QR-code payment awaiting settlement.
type Charge struct {
	ID          string `json:"id"`
	BRCode      string `json:"brCode"`
	BRCodeImage string `json:"brCodeBase64"`
	AmountCents int    `json:"amount"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expiresAt"`
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:  strings.TrimSpace(env.GetEnv("PIX_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("PIX_API_BASE_URL", defaultPixAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateCharge registers a PIX QR-code charge for a catalog plan. The
// metadata is echoed back verbatim on the settlement webhook and is the only
// link between the charge and the buyer.
func (c *Client) CreateCharge(ctx context.Context, planID string, amountCents int, meta Metadata) (*Charge, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("PIX_API_KEY is not configured")
	}
	if amountCents <= 0 {
		return nil, errors.New("charge amount must be positive")
	}

	body := map[string]interface{}{
		"amount":      amountCents,
		"expiresIn":   3600,
		"description": fmt.Sprintf("RestauraFoto - pacote %s", planID),
		"metadata":    meta,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/pixQrCode/create", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	// EVP-style idempotency key so a retried create never mints two charges.
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pix charge creation failed: status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out struct {
		Data Charge `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Data.ID) == "" {
		return nil, errors.New("pix charge creation returned empty id")
	}
	return &out.Data, nil
}

// RequestRefund asks the processor to refund a settled payment. The outcome
// is reported back asynchronously as a billing.refunded webhook.
func (c *Client) RequestRefund(ctx context.Context, providerPaymentID string) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("PIX_API_KEY is not configured")
	}
	id := strings.TrimSpace(providerPaymentID)
	if id == "" {
		return errors.New("provider payment id is required")
	}

	payload, err := json.Marshal(map[string]string{"pixQrCodeId": id})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/pixQrCode/refund", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pix refund request failed: status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}
