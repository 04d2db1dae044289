package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken computes the SHA-256 digest of a raw token string and returns it
// hex-encoded. Refresh tokens are stored server-side only in this form, so a
// database leak never exposes a replayable token.
//
// Example usage:
//
//	hash := utils.HashToken(pair.RefreshToken)
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
