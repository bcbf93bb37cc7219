package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// SignatureKey computes the notification signature the processor attaches to
// every callback: hex(SHA-512(order_id + status_code + gross_amount + server_key)).
func SignatureKey(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature reports whether signature matches the expected key byte-for-byte.
func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	expected := SignatureKey(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
