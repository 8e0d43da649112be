package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/jwt"
	"github.com/sbilibin2017/microblog/internal/models"
)

//go:generate mockgen -source=services.go -destination=mock_services.go -package=services

// Error variables
var (
	ErrInvalidCredentials = errors.New("invalid email/password combination")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrRateLimited        = errors.New("too many sign-in attempts")
	ErrForbidden          = errors.New("forbidden")
	ErrUserNotFound       = errors.New("user not found")
	ErrMicropostNotFound  = errors.New("micropost not found")
	ErrCannotFollowSelf   = errors.New("users cannot follow themselves")
	ErrAlreadyFollowing   = errors.New("already following")
	ErrNotFollowing       = errors.New("not following")
)

// UserReader defines read-only operations for users and the follow graph.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	List(ctx context.Context, limit, offset int) ([]models.UserDB, error)
	Count(ctx context.Context) (int, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.UserDB, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.UserDB, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Create(ctx context.Context, user *models.UserDB) error
	Update(ctx context.Context, user *models.UserDB) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MicropostReader defines read-only operations for microposts.
type MicropostReader interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.MicropostDB, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	Feed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.MicropostDB, error)
	CountFeed(ctx context.Context, userID uuid.UUID) (int, error)
}

// MicropostWriter defines write operations for microposts.
type MicropostWriter interface {
	Create(ctx context.Context, micropost *models.MicropostDB) error
	DeleteOwned(ctx context.Context, id, userID uuid.UUID) error
}

// RelationshipStore stores follow edges.
type RelationshipStore interface {
	Create(ctx context.Context, followerID, followedID uuid.UUID) error
	Delete(ctx context.Context, followerID, followedID uuid.UUID) error
	Exists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error)
}

// SessionStore keeps the server-side record of issued session tokens.
type SessionStore interface {
	Save(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error
	Get(ctx context.Context, tokenID string) (uuid.UUID, error)
	Delete(ctx context.Context, tokenID string) error
}

// TokenIssuer signs and parses session and API tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, tokenID string, exp time.Duration) (string, error)
	GetClaims(ctx context.Context, token string) (*jwt.Claims, error)
}

// RateLimiter throttles calls per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// pageOf loads one page of a listing through list and count.
func pageOf[T any](
	ctx context.Context,
	number, size int,
	list func(ctx context.Context, limit, offset int) ([]T, error),
	count func(ctx context.Context) (int, error),
) (*models.Page[T], error) {
	if number < 1 {
		number = 1
	}
	items, err := list(ctx, size, models.Offset(number, size))
	if err != nil {
		return nil, err
	}
	total, err := count(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewPage(items, number, size, total), nil
}
