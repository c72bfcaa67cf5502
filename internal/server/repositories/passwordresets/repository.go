// Package passwordresets declares the server-side repository contract for
// password reset requests. Only a SHA-256 hash of the reset token is stored,
// so a leaked table never reveals a usable token; lookups go straight by
// hash.
package passwordresets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines the persistence operations for password resets.
type Repository interface {
	// Create stores a reset request for the user, keyed by the token hash,
	// expiring after validity. Any previous requests for the user are
	// replaced.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) (*models.PasswordReset, error)

	// GetByTokenHash looks up a reset request by the hash of its token.
	// Returns common.ErrNotFound when absent.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)

	// DeleteByID removes a single reset request.
	DeleteByID(ctx context.Context, id string) error

	// DeleteAllByUser removes every reset request belonging to the user.
	DeleteAllByUser(ctx context.Context, userID string) error

	// DeleteExpired removes requests whose expires_at has passed and
	// returns the number of rows removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
