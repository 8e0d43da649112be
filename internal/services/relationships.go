package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/repositories"
)

// RelationshipService maintains the follow graph.
type RelationshipService struct {
	store  RelationshipStore
	events *EventPublisher
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(store RelationshipStore, events *EventPublisher) *RelationshipService {
	return &RelationshipService{store: store, events: events}
}

// Follow makes followerID follow followedID.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followedID uuid.UUID) error {
	if followerID == followedID {
		return ErrCannotFollowSelf
	}

	err := s.store.Create(ctx, followerID, followedID)
	switch {
	case errors.Is(err, repositories.ErrConflict):
		return ErrAlreadyFollowing
	case errors.Is(err, repositories.ErrNotFound):
		return ErrUserNotFound
	case err != nil:
		logger.Log.Errorw("failed to follow", "follower_id", followerID, "followed_id", followedID, "err", err)
		return err
	}

	s.events.Publish(ctx, models.EventRelationshipCreated, followerID, followedID)
	return nil
}

// Unfollow removes the edge followerID -> followedID.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followedID uuid.UUID) error {
	err := s.store.Delete(ctx, followerID, followedID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFollowing
	}
	if err != nil {
		logger.Log.Errorw("failed to unfollow", "follower_id", followerID, "followed_id", followedID, "err", err)
		return err
	}

	s.events.Publish(ctx, models.EventRelationshipDeleted, followerID, followedID)
	return nil
}

// IsFollowing reports whether followerID follows candidateID.
func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, candidateID uuid.UUID) (bool, error) {
	ok, err := s.store.Exists(ctx, followerID, candidateID)
	if err != nil {
		logger.Log.Errorw("failed to check relationship", "follower_id", followerID, "followed_id", candidateID, "err", err)
	}
	return ok, err
}
