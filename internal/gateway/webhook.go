package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"marketplace/internal/apperr"
)

// Sign computes the hex HMAC-SHA256 of body under secret. Used both for
// verification and for producing signatures in tests.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the webhook signature over the exact raw bytes as
// received on the wire. Re-serializing a parsed body is not equivalent: JSON
// key order and whitespace are not preserved, so the HMAC must be computed on
// the original byte sequence only.
func VerifySignature(raw []byte, signatureHeader, secret string) error {
	if signatureHeader == "" {
		return apperr.SignatureInvalid("missing webhook signature")
	}

	expected := Sign(raw, secret)
	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return apperr.SignatureInvalid("webhook signature mismatch")
	}
	return nil
}

// WebhookEvent is the minimal payload shape we accept from the provider. The
// payload is a trigger only: everything beyond the payment id is re-fetched
// from the provider API before any state changes.
type WebhookEvent struct {
	Event  string `json:"event"`
	Object struct {
		ID string `json:"id"`
	} `json:"object"`
}

func ParseWebhook(raw []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, apperr.Validation("malformed webhook payload")
	}
	if ev.Object.ID == "" {
		return nil, apperr.Validation("webhook payload missing payment id")
	}
	return &ev, nil
}
