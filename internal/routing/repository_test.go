// AngelaMos | 2026
// repository_test.go

package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/whome/internal/core"
)

func newSQLRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })

	return NewRepository(sqlx.NewDb(mockDB, "pgx")), mock
}

func TestRepositorySetUpsertsBothFields(t *testing.T) {
	repo, mock := newSQLRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM user_routes WHERE vanity_path = \$1 AND user_id <> \$2\)`).
		WithArgs("al", aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO user_routes`).
		WithArgs(aliceID, "al", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Set(context.Background(), &Entry{UserID: aliceID, VanityPath: nullable("al")})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositorySetPreCheckConflict(t *testing.T) {
	repo, mock := newSQLRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE vanity_path = \$1 AND user_id <> \$2`).
		WithArgs("al", bobID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Set(context.Background(), &Entry{UserID: bobID, VanityPath: nullable("al")})
	if field := conflictField(t, err); field != FieldVanityPath {
		t.Fatalf("field = %q, want %q", field, FieldVanityPath)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositorySetConstraintRaceMapsToConflict(t *testing.T) {
	repo, mock := newSQLRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE custom_domain = \$1 AND user_id <> \$2`).
		WithArgs("bob.dev", bobID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO user_routes`).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "user_routes_custom_domain_key",
		})
	mock.ExpectRollback()

	err := repo.Set(context.Background(), &Entry{UserID: bobID, CustomDomain: nullable("bob.dev")})
	if field := conflictField(t, err); field != FieldCustomDomain {
		t.Fatalf("field = %q, want %q", field, FieldCustomDomain)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRepositoryFindUserByVanityNotFound(t *testing.T) {
	repo, mock := newSQLRepository(t)

	mock.ExpectQuery(`SELECT user_id FROM user_routes WHERE vanity_path = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := repo.FindUserByVanity(context.Background(), "ghost")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
