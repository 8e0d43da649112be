package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/microblog/internal/logger"
)

// SessionRepository keeps the server-side record of issued session tokens in
// Redis. A token restores an identity only while its record exists, so
// deleting the record revokes the token.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(tokenID string) string {
	return fmt.Sprintf("session:%s", tokenID)
}

// Save records tokenID as belonging to userID for ttl.
func (r *SessionRepository) Save(ctx context.Context, tokenID string, userID uuid.UUID, ttl time.Duration) error {
	key := sessionKey(tokenID)
	err := r.client.Set(ctx, key, userID.String(), ttl).Err()

	logger.FromContext(ctx).Debugw("redis set",
		"key", key,
		"ttl", ttl,
		"error", err,
	)

	return err
}

// Get returns the user the token was issued to, or ErrNotFound when the
// token expired or was revoked.
func (r *SessionRepository) Get(ctx context.Context, tokenID string) (uuid.UUID, error) {
	key := sessionKey(tokenID)
	val, err := r.client.Get(ctx, key).Result()

	logger.FromContext(ctx).Debugw("redis get",
		"key", key,
		"result", val,
		"error", err,
	)

	if err == redis.Nil {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

// Delete revokes tokenID. Deleting an unknown token is not an error.
func (r *SessionRepository) Delete(ctx context.Context, tokenID string) error {
	key := sessionKey(tokenID)
	err := r.client.Del(ctx, key).Err()

	logger.FromContext(ctx).Debugw("redis del",
		"key", key,
		"error", err,
	)

	return err
}
