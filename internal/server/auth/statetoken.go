package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// State-token purposes. A token minted for one purpose never verifies for
// another.
const (
	PurposeConfirmEmail = "confirm_email"
)

// statePayload is the claim set of a state token: the user it was issued
// for, what it may be used for, and when it stops working.
type statePayload struct {
	Subject   string `json:"sub"`
	Purpose   string `json:"pur"`
	ExpiresAt int64  `json:"exp"`
}

// GenerateStateToken mints a compact HMAC-SHA256 token bound to userID and
// purpose, valid for validityDuration. Format:
// base64url(payload).base64url(signature).
func GenerateStateToken(userID, purpose string, secretKey []byte, validityDuration time.Duration) (string, error) {
	payload := statePayload{
		Subject:   userID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(validityDuration).Unix(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(data)
	sig := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// VerifyStateToken checks the signature, expiry, purpose, and subject of a
// state token. A token presented against any user other than the one it was
// issued for fails with common.ErrInvalidToken; an expired token fails with
// common.ErrTokenExpired.
func VerifyStateToken(token, userID, purpose string, secretKey []byte) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return common.ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return common.ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return common.ErrInvalidToken
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write(data)
	if subtle.ConstantTimeCompare(sig, mac.Sum(nil)) != 1 {
		return common.ErrInvalidToken
	}

	var payload statePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return common.ErrInvalidToken
	}

	if payload.Purpose != purpose || payload.Subject != userID {
		return common.ErrInvalidToken
	}
	if time.Now().Unix() > payload.ExpiresAt {
		return common.ErrTokenExpired
	}

	return nil
}
