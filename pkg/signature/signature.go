// Package signature signs and checks payment-provider messages with
// HMAC-SHA256. Digests are lowercase hex, as the provider sends them.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns hex(HMAC-SHA256(secret, message)).
func Sign(secret, message string) string {
	return hex.EncodeToString(sum(secret, []byte(message)))
}

// SignBytes is Sign over a raw body, used for webhook payloads.
func SignBytes(secret string, body []byte) string {
	return hex.EncodeToString(sum(secret, body))
}

// Verify reports whether candidate is the signature of message under secret.
// The comparison is constant time.
func Verify(secret, message, candidate string) bool {
	return VerifyBytes(secret, []byte(message), candidate)
}

func VerifyBytes(secret string, body []byte, candidate string) bool {
	expected := SignBytes(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(candidate)))
}

func sum(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}
