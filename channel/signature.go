package channel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature header against the exact body bytes.
// The header may carry a "sha256=" prefix.
func VerifySignature(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	header = strings.TrimSpace(header)
	header = strings.TrimPrefix(strings.ToLower(header), signaturePrefix)
	if header == "" {
		return false
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(header), []byte(expected))
}
