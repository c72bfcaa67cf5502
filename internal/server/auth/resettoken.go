package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/authkeeper/internal/randx"
)

// ResetTokenBytes is the entropy of a password-reset token (32 bytes,
// 256 bits, 43 base64url characters).
const ResetTokenBytes = 32

// GenerateResetToken creates a random reset token and its SHA-256 hash.
// The raw token goes into the reset email; only the hash is persisted, so a
// database leak does not expose usable tokens.
func GenerateResetToken() (token, hash string, err error) {
	token, err = randx.MakeRandString(ResetTokenBytes)
	if err != nil {
		return "", "", err
	}
	return token, HashResetToken(token), nil
}

// HashResetToken computes the hex-encoded SHA-256 hash of a raw token.
// Lookup by this hash resolves the owning user directly from the token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
