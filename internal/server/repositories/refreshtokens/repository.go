// Package refreshtokens declares the server-side repository contract for
// opaque refresh tokens. Rotation correctness hinges on DeleteByID reporting
// whether the caller actually removed the row, so two concurrent refreshes
// of the same token cannot both succeed.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines the persistence operations for refresh tokens.
type Repository interface {
	// Create stores a new refresh token for the user, expiring after
	// validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) (*models.RefreshToken, error)

	// GetByToken looks up a token row by its opaque value.
	// Returns common.ErrNotFound when absent.
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteByID removes the row with the given id and reports whether a
	// row was actually deleted. False means another caller got there first.
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteAllByUser removes every refresh token belonging to the user.
	DeleteAllByUser(ctx context.Context, userID string) error

	// DeleteExpired removes tokens whose expires_at has passed and returns
	// the number of rows removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
