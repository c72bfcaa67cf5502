// Package auth implements the token primitives of the authentication core:
// signed JWT access tokens, HMAC state tokens for email confirmation, and
// hashed single-use password-reset tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// Claims is the typed claim set carried by access tokens: the registered
// claims (subject = user id, exp) plus the user's role identifiers.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// GenerateToken mints an HS256-signed access token for userID that expires
// validityDuration from now.
func GenerateToken(userID string, roles []string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Roles: roles,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and temporal claims of tokenString and
// returns the parsed claims. Expired tokens yield common.ErrTokenExpired;
// any other failure (bad signature, malformed token, wrong algorithm)
// yields common.ErrInvalidToken, so callers can prompt a refresh versus a
// full re-login.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ExpirationTime extracts the exp claim (epoch seconds) from a token the
// caller just minted, without re-verifying the signature.
func ExpirationTime(tokenString string) (int64, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return 0, common.ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return 0, common.ErrInvalidToken
	}
	return claims.ExpiresAt.Unix(), nil
}
