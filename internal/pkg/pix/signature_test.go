package pix

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test_123"

func hmacHex(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookAuthRejectsWhenSecretUnconfigured(t *testing.T) {
	payload := []byte(`{"event":"billing.paid"}`)
	assert.False(t, VerifyWebhookAuth(payload, testSecret, "", ""))
	assert.False(t, VerifyWebhookAuth(payload, hmacHex(payload, testSecret), "", ""))
	assert.False(t, VerifyWebhookAuth(payload, "", testSecret, ""))
}

func TestVerifyWebhookAuthQuerySecret(t *testing.T) {
	payload := []byte(`{}`)
	assert.True(t, VerifyWebhookAuth(payload, "", testSecret, testSecret))
	assert.False(t, VerifyWebhookAuth(payload, "", "wrong", testSecret))
}

func TestVerifyWebhookAuthPlainHeaderSecret(t *testing.T) {
	payload := []byte(`{}`)
	assert.True(t, VerifyWebhookAuth(payload, testSecret, "", testSecret))
	assert.False(t, VerifyWebhookAuth(payload, "wrong", "", testSecret))
	assert.False(t, VerifyWebhookAuth(payload, "", "", testSecret))
}

func TestVerifyWebhookAuthHMACHeader(t *testing.T) {
	payload := []byte(`{"event":"billing.paid","data":{}}`)
	sig := hmacHex(payload, testSecret)

	assert.True(t, VerifyWebhookAuth(payload, sig, "", testSecret))
	assert.True(t, VerifyWebhookAuth(payload, strings.ToUpper(sig), "", testSecret))

	// Signature over a different body must not verify.
	assert.False(t, VerifyWebhookAuth([]byte(`{"event":"billing.refunded"}`), sig, "", testSecret))
	// Signature with a different secret must not verify.
	assert.False(t, VerifyWebhookAuth(payload, hmacHex(payload, "other"), "", testSecret))
	// Non-hex garbage must not verify.
	assert.False(t, VerifyWebhookAuth(payload, "zz-not-hex", "", testSecret))
}
