package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/microblog/internal/models"
)

const micropostColumns = `m.id, m.user_id, m.content, m.created_at, m.updated_at, u.name AS author_name, u.email AS author_email`

// MicropostWriteRepository handles micropost writes
type MicropostWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewMicropostWriteRepository(db *sqlx.DB, txGetter TxGetter) *MicropostWriteRepository {
	return &MicropostWriteRepository{db: db, txGetter: txGetter}
}

// Create inserts micropost and fills its timestamps.
func (r *MicropostWriteRepository) Create(ctx context.Context, micropost *models.MicropostDB) error {
	const query = `
		INSERT INTO microposts (id, user_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	args := []any{micropost.ID, micropost.UserID, micropost.Content}

	row := executor(ctx, r.db, r.txGetter).QueryRowxContext(ctx, query, args...)
	err := row.Scan(&micropost.CreatedAt, &micropost.UpdatedAt)
	logQuery(ctx, query, args, micropost.CreatedAt, err)

	if pgErrorCode(err) == foreignKeyViolation {
		return ErrNotFound
	}
	return err
}

// DeleteOwned deletes the micropost only when it belongs to userID.
// A micropost of another user is reported as ErrNotFound.
func (r *MicropostWriteRepository) DeleteOwned(ctx context.Context, id, userID uuid.UUID) error {
	const query = `DELETE FROM microposts WHERE id = $1 AND user_id = $2`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, id, userID)
	n := rowsAffected(res)
	logQuery(ctx, query, []any{id, userID}, n, err)

	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MicropostReadRepository handles micropost reads
type MicropostReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewMicropostReadRepository(db *sqlx.DB, txGetter TxGetter) *MicropostReadRepository {
	return &MicropostReadRepository{db: db, txGetter: txGetter}
}

func (r *MicropostReadRepository) list(ctx context.Context, query string, args ...any) ([]models.MicropostDB, error) {
	microposts := []models.MicropostDB{}
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &microposts, query, args...)
	logQuery(ctx, query, args, len(microposts), err)
	return microposts, err
}

func (r *MicropostReadRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &n, query, args...)
	logQuery(ctx, query, args, n, err)
	return n, err
}

// ListByUser returns the microposts of userID, newest first.
func (r *MicropostReadRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.MicropostDB, error) {
	const query = `
		SELECT ` + micropostColumns + `
		FROM microposts m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC, m.id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *MicropostReadRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM microposts WHERE user_id = $1`, userID)
}

// feedFilter selects microposts written by the users userID follows.
const feedFilter = `m.user_id IN (SELECT followed_id FROM relationships WHERE follower_id = $1)`

// Feed returns the microposts of every user userID follows, newest first.
// It is evaluated against the current edges on every call.
func (r *MicropostReadRepository) Feed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.MicropostDB, error) {
	const query = `
		SELECT ` + micropostColumns + `
		FROM microposts m
		JOIN users u ON u.id = m.user_id
		WHERE ` + feedFilter + `
		ORDER BY m.created_at DESC, m.id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *MicropostReadRepository) CountFeed(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM microposts m WHERE `+feedFilter, userID)
}
