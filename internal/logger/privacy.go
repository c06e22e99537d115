package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

var hashSalt string

// InitHashSalt loads the log hash salt from the environment.
// In production, set LOG_HASH_SALT.
func InitHashSalt() {
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = "default-salt-change-in-production"
	}
}

// HashID creates a privacy-preserving hash of an opaque identifier
// (user, customer or account) so actions can be correlated in logs
// without exposing the real ID.
func HashID(id string) string {
	if id == "" {
		return "<empty>"
	}
	data := fmt.Sprintf("%s:%s", id, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// First 8 characters are enough for correlation.
	return hex.EncodeToString(hash[:])[:8]
}

// MaskAccountID shows only the last four characters of an account ID.
func MaskAccountID(accountID string) string {
	if len(accountID) <= 4 {
		return "****"
	}
	return "****" + accountID[len(accountID)-4:]
}
