// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a flat account record. Email is unique and stored case-normalized
// (lowercase, trimmed). PasswordHash is nil for accounts created through a
// federated sign-in that never set a local password; when present it is
// produced only by the password hasher.
type User struct {
	ID             string
	Email          string
	Name           string
	PasswordHash   *string
	EmailConfirmed bool
	Roles          []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword reports whether the account carries a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
