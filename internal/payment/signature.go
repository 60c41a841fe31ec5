// Package payment holds the payment-gateway contract: the intent client
// interface and the confirmation signature verifier.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// VerifySignature checks the authenticity of a gateway payment confirmation.
// The gateway signs the string "{orderID}|{paymentID}" with HMAC-SHA256 under
// the shared key secret and sends the hex digest alongside the ids.
//
// Pure and deterministic. The comparison is constant-time so response timing
// leaks nothing about how much of a forged signature matched.
func VerifySignature(orderID, paymentID, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
