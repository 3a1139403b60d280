package pix

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// VerifyWebhookAuth authenticates an inbound delivery before any parsing.
// The provider authenticates with either a dedicated signature header or the
// shared secret as a query parameter, depending on how the webhook was
// registered; both channels validate against the same configured secret.
//
// The header value is accepted as the plain shared secret or as a hex
// HMAC-SHA256 of the exact raw body. All comparisons are constant-time.
func VerifyWebhookAuth(payload []byte, signatureHeader, querySecret, webhookSecret string) bool {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		// An unconfigured secret means nothing can be authenticated.
		return false
	}

	if q := strings.TrimSpace(querySecret); q != "" {
		if subtle.ConstantTimeCompare([]byte(q), []byte(secret)) == 1 {
			return true
		}
	}

	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(sig), []byte(secret)) == 1 {
		return true
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}
