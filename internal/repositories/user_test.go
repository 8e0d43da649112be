package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var userRowColumns = []string{"id", "name", "email", "salt", "encrypted_password", "admin", "created_at", "updated_at"}

func TestUserReadRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserReadRepository(db, nil)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(u.email) = LOWER($1)")).
			WithArgs("Steve@Example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(id.String(), "Steve", "steve@example.com", "salt", "hash", false, now, now))

		user, err := repo.GetByEmail(ctx, "Steve@Example.com")
		assert.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, "steve@example.com", user.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(u.email) = LOWER($1)")).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db, nil)
	ctx := context.Background()
	now := time.Now()

	user := &models.UserDB{ID: uuid.New(), Name: "Steve", Email: "steve@example.com", Salt: "s", EncryptedPassword: "h"}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT DO NOTHING")).
		WithArgs(user.ID, "Steve", "steve@example.com", "s", "h", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	assert.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, now, user.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))

	err := repo.Create(ctx, &models.UserDB{ID: uuid.New(), Email: "STEVE@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db, nil)
	ctx := context.Background()
	user := &models.UserDB{ID: uuid.New(), Name: "New", Email: "taken@example.com"}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, repo.Update(ctx, user), ErrConflict)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, user), ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	assert.NoError(t, repo.Update(ctx, user))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Delete_OwnTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db, nil)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM microposts WHERE user_id = $1")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM relationships WHERE follower_id = $1 OR followed_id = $1")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Delete_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db, nil)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM microposts")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM relationships")).
		WithArgs(id).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	assert.EqualError(t, repo.Delete(context.Background(), id), "boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Delete_UsesRequestTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	tx, err := db.Beginx()
	require.NoError(t, err)

	repo := NewUserWriteRepository(db, func(ctx context.Context) *sqlx.Tx { return tx })

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM microposts")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM relationships")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 0))

	// No commit is expected: the owner of the transaction finishes it.
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
