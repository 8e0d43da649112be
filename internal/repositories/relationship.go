package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RelationshipRepository stores follow edges. Uniqueness of a
// (follower, followed) pair is enforced by the primary key.
type RelationshipRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewRelationshipRepository(db *sqlx.DB, txGetter TxGetter) *RelationshipRepository {
	return &RelationshipRepository{db: db, txGetter: txGetter}
}

// Create inserts the edge follower -> followed. An existing edge yields
// ErrConflict, a missing followed user ErrNotFound. The insert is guarded
// so that neither case raises inside the caller's transaction.
func (r *RelationshipRepository) Create(ctx context.Context, followerID, followedID uuid.UUID) error {
	const query = `
		INSERT INTO relationships (follower_id, followed_id, created_at)
		SELECT $1, $2, NOW()
		WHERE EXISTS (SELECT 1 FROM users WHERE id = $2)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`
	exec := executor(ctx, r.db, r.txGetter)

	res, err := exec.ExecContext(ctx, query, followerID, followedID)
	n := rowsAffected(res)
	logQuery(ctx, query, []any{followerID, followedID}, n, err)

	if pgErrorCode(err) == foreignKeyViolation {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	const existsQuery = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`
	var exists bool
	err = sqlx.GetContext(ctx, exec, &exists, existsQuery, followedID)
	logQuery(ctx, existsQuery, []any{followedID}, exists, err)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// Delete removes the edge follower -> followed or returns ErrNotFound.
func (r *RelationshipRepository) Delete(ctx context.Context, followerID, followedID uuid.UUID) error {
	const query = `DELETE FROM relationships WHERE follower_id = $1 AND followed_id = $2`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, followerID, followedID)
	n := rowsAffected(res)
	logQuery(ctx, query, []any{followerID, followedID}, n, err)

	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether follower follows followed.
func (r *RelationshipRepository) Exists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM relationships WHERE follower_id = $1 AND followed_id = $2)`

	var exists bool
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &exists, query, followerID, followedID)
	logQuery(ctx, query, []any{followerID, followedID}, exists, err)
	return exists, err
}
