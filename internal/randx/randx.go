// Package randx provides utility functions for generating random strings.
package randx

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandString generates an opaque, URL-safe random string from size bytes
// of crypto/rand entropy, encoded with base64url (no padding). With size=32
// the result is a 43-character string carrying 256 bits of entropy, which is
// what refresh tokens use.
//
// It returns an error only if the random number generator fails.
func MakeRandString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
