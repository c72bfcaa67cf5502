package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(id,\s*user_id,\s*token,\s*expires_at\).*RETURNING\s+created_at\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"created_at"}).AddRow(now)
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "u-1", "opaque-token", sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), "u-1", "opaque-token", time.Hour)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" {
		t.Fatal("row id not generated")
	}
	if got.UserID != "u-1" || got.Token != "opaque-token" {
		t.Fatalf("unexpected token row: %+v", got)
	}
	if got.ExpiresAt.Before(now.Add(59 * time.Minute)) {
		t.Fatalf("expiry not applied: %v", got.ExpiresAt)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+refresh_tokens\b`

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "u-1", "opaque-token", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "u-1", "opaque-token", time.Hour)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetByToken_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*token,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
		AddRow("rt-1", "u-1", "opaque-token", now.Add(time.Hour), now)

	mock.ExpectQuery(q).
		WithArgs("opaque-token").
		WillReturnRows(rows)

	got, err := repo.GetByToken(context.Background(), "opaque-token")
	if err != nil {
		t.Fatalf("GetByToken error: %v", err)
	}
	if got.ID != "rt-1" || got.UserID != "u-1" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestGetByToken_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByToken(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestDeleteByID_Deleted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("rt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.DeleteByID(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("DeleteByID error: %v", err)
	}
	if !ok {
		t.Fatal("want ok=true when a row was deleted")
	}
}

func TestDeleteByID_AlreadyGone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("rt-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DeleteByID(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("DeleteByID error: %v", err)
	}
	if ok {
		t.Fatal("want ok=false when no row matched")
	}
}

func TestDeleteAllByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteAllByUser(context.Background(), "u-1"); err != nil {
		t.Fatalf("DeleteAllByUser error: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<\s*now\(\)\s*$`

	mock.ExpectExec(q).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
	if n != 7 {
		t.Fatalf("want 7 rows removed, got %d", n)
	}
}
