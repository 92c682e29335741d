package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func Sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// FingerprintEmail hashes a normalized address so limiter keys never hold raw emails.
func FingerprintEmail(email string) string {
	return Sha256Hex([]byte(strings.ToLower(strings.TrimSpace(email))))
}
