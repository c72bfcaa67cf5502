package passwordresets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create replaces any outstanding reset requests for the user and inserts a
// new one expiring after validity. One live request per user keeps the
// earlier token from staying valid after a newer one was issued.
func (r *PostgresRepository) Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) (*models.PasswordReset, error) {
	del := `DELETE FROM password_resets WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, del, userID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query := `
		INSERT INTO password_resets (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	pr := &models.PasswordReset{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(validity),
	}

	err := r.db.QueryRowContext(ctx, query, pr.ID, pr.UserID, pr.TokenHash, pr.ExpiresAt).
		Scan(&pr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pr, nil
}

// GetByTokenHash returns the reset request matching the token hash.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM password_resets
		WHERE token_hash = $1
	`
	pr := &models.PasswordReset{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).
		Scan(&pr.ID, &pr.UserID, &pr.TokenHash, &pr.ExpiresAt, &pr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return pr, nil
}

// DeleteByID removes a single reset request.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM password_resets WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAllByUser removes every reset request belonging to userID.
func (r *PostgresRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM password_resets WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes requests past their expiry and returns the count.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM password_resets WHERE expires_at < now()`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
