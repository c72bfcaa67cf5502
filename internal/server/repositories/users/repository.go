// Package users declares the server-side repository contract for user
// records. The surface is deliberately narrow: the authentication core
// needs lookups by email/id and a few targeted mutations, not a general
// query interface.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines the credential-store operations used by the
// authentication service.
type Repository interface {
	// Create inserts a new user row. A duplicate email yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail looks up a user by case-normalized email.
	// Returns common.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID looks up a user by id. Returns common.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error

	// ConfirmEmail marks the account's email as confirmed.
	ConfirmEmail(ctx context.Context, userID string) error

	// AddRole assigns a role to the user.
	AddRole(ctx context.Context, userID, roleID string) error

	// GetRoles returns the role identifiers assigned to the user.
	GetRoles(ctx context.Context, userID string) ([]string, error)
}
