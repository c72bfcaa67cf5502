package passwordresets

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

func TestCreate_ReplacesPreviousRequests(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	del := `(?s)^DELETE\s+FROM\s+password_resets\s+WHERE\s+user_id\s*=\s*\$1\s*$`
	ins := `(?s)^INSERT\s+INTO\s+password_resets\s*\(id,\s*user_id,\s*token_hash,\s*expires_at\).*RETURNING\s+created_at\s*$`

	now := time.Now()
	mock.ExpectExec(del).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(ins).
		WithArgs(sqlmock.AnyArg(), "u-1", "abc123hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	got, err := repo.Create(context.Background(), "u-1", "abc123hash", time.Hour)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" {
		t.Fatal("row id not generated")
	}
	if got.UserID != "u-1" || got.TokenHash != "abc123hash" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	del := `(?s)^DELETE\s+FROM\s+password_resets\s+WHERE\s+user_id\s*=\s*\$1\s*$`

	mock.ExpectExec(del).
		WithArgs("u-1").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "u-1", "h", time.Hour)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetByTokenHash_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*token_hash,\s*expires_at,\s*created_at\s+FROM\s+password_resets\s+WHERE\s+token_hash\s*=\s*\$1\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
		AddRow("pr-1", "u-1", "abc123hash", now.Add(time.Hour), now)

	mock.ExpectQuery(q).
		WithArgs("abc123hash").
		WillReturnRows(rows)

	got, err := repo.GetByTokenHash(context.Background(), "abc123hash")
	if err != nil {
		t.Fatalf("GetByTokenHash error: %v", err)
	}
	if got.ID != "pr-1" || got.UserID != "u-1" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestGetByTokenHash_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+password_resets\s+WHERE\s+token_hash\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByTokenHash(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+password_resets\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs("pr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteByID(context.Background(), "pr-1"); err != nil {
		t.Fatalf("DeleteByID error: %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+password_resets\s+WHERE\s+expires_at\s*<\s*now\(\)\s*$`

	mock.ExpectExec(q).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 rows removed, got %d", n)
	}
}
