package models

import "time"

// RefreshToken is a server-stored opaque session token. Each token value
// maps to at most one live row; consumption (refresh) and revocation
// (logout) both end with the row gone, so absence is the only terminal
// state the store knows about.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token's lifetime has passed.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
