package models

import "time"

// PasswordReset records an outstanding password-reset request. Only the
// SHA-256 hash of the token is stored; the raw value exists solely in the
// email sent to the user, and lookup goes directly by hash so the owning
// user is resolved from the token, never by scanning accounts.
type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the reset request has expired.
func (r *PasswordReset) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}
