package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashCode returns the lowercase hex SHA-256 of a short-lived passcode.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
