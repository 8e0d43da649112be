package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/microblog/internal/models"
)

const userColumns = `u.id, u.name, u.email, u.salt, u.encrypted_password, u.admin, u.created_at, u.updated_at`

// UserReadRepository handles user and social graph reads
type UserReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserReadRepository(db *sqlx.DB, txGetter TxGetter) *UserReadRepository {
	return &UserReadRepository{db: db, txGetter: txGetter}
}

func (r *UserReadRepository) get(ctx context.Context, query string, arg any) (*models.UserDB, error) {
	var user models.UserDB
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &user, query, arg)
	logQuery(ctx, query, []any{arg}, user.ID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID returns the user with the given id or ErrNotFound.
func (r *UserReadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserDB, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
}

// GetByEmail looks the user up case-insensitively.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users u WHERE LOWER(u.email) = LOWER($1)`, email)
}

func (r *UserReadRepository) list(ctx context.Context, query string, args ...any) ([]models.UserDB, error) {
	users := []models.UserDB{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &users, query, args...)
	logQuery(ctx, query, args, len(users), err)
	return users, err
}

func (r *UserReadRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &n, query, args...)
	logQuery(ctx, query, args, n, err)
	return n, err
}

// List returns users in sign-up order.
func (r *UserReadRepository) List(ctx context.Context, limit, offset int) ([]models.UserDB, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users u
		ORDER BY u.created_at, u.id
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, limit, offset)
}

// Count returns the number of users.
func (r *UserReadRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

// ListFollowing returns the users userID follows, in the order the edges were created.
func (r *UserReadRepository) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.UserDB, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM relationships r
		JOIN users u ON u.id = r.followed_id
		WHERE r.follower_id = $1
		ORDER BY r.created_at, u.id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, limit, offset)
}

// ListFollowers returns the users following userID, in the order the edges were created.
func (r *UserReadRepository) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.UserDB, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM relationships r
		JOIN users u ON u.id = r.follower_id
		WHERE r.followed_id = $1
		ORDER BY r.created_at, u.id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *UserReadRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM relationships WHERE follower_id = $1`, userID)
}

func (r *UserReadRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM relationships WHERE followed_id = $1`, userID)
}

// UserWriteRepository handles user writes
type UserWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserWriteRepository(db *sqlx.DB, txGetter TxGetter) *UserWriteRepository {
	return &UserWriteRepository{db: db, txGetter: txGetter}
}

// Create inserts user. The unique index on LOWER(email) rejects duplicates
// without aborting the surrounding transaction; they surface as ErrConflict.
func (r *UserWriteRepository) Create(ctx context.Context, user *models.UserDB) error {
	const query = `
		INSERT INTO users (id, name, email, salt, encrypted_password, admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT DO NOTHING
		RETURNING created_at, updated_at
	`
	args := []any{user.ID, user.Name, user.Email, user.Salt, user.EncryptedPassword, user.Admin}

	row := executor(ctx, r.db, r.txGetter).QueryRowxContext(ctx, query, args...)
	err := row.Scan(&user.CreatedAt, &user.UpdatedAt)
	logQuery(ctx, query, []any{user.ID, user.Name, user.Email}, user.CreatedAt, err)

	if errors.Is(err, sql.ErrNoRows) {
		return ErrConflict
	}
	return err
}

// Update stores name, email and credentials of user.
func (r *UserWriteRepository) Update(ctx context.Context, user *models.UserDB) error {
	const query = `
		UPDATE users
		SET name = $2, email = $3, salt = $4, encrypted_password = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	row := executor(ctx, r.db, r.txGetter).QueryRowxContext(ctx, query,
		user.ID, user.Name, user.Email, user.Salt, user.EncryptedPassword)
	err := row.Scan(&user.UpdatedAt)
	logQuery(ctx, query, []any{user.ID, user.Name, user.Email}, user.UpdatedAt, err)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case pgErrorCode(err) == uniqueViolation:
		return ErrConflict
	}
	return err
}

// Delete removes the user together with its microposts and every follow edge
// it appears in. The deletes run in the request transaction, or in a
// transaction of their own when there is none.
func (r *UserWriteRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	var tx *sqlx.Tx
	if r.txGetter != nil {
		tx = r.txGetter(ctx)
	}
	if tx == nil {
		if tx, err = r.db.BeginTxx(ctx, nil); err != nil {
			return err
		}
		defer func() {
			if err != nil {
				tx.Rollback()
				return
			}
			err = tx.Commit()
		}()
	}

	queries := []string{
		`DELETE FROM microposts WHERE user_id = $1`,
		`DELETE FROM relationships WHERE follower_id = $1 OR followed_id = $1`,
	}
	for _, query := range queries {
		res, execErr := tx.ExecContext(ctx, query, id)
		logQuery(ctx, query, []any{id}, rowsAffected(res), execErr)
		if execErr != nil {
			return execErr
		}
	}

	const query = `DELETE FROM users WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, id)
	n := rowsAffected(res)
	logQuery(ctx, query, []any{id}, n, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, _ := res.RowsAffected()
	return n
}
