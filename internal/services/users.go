package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/repositories"
	"github.com/sbilibin2017/microblog/internal/validator"
)

// UpdateInput is the profile edit form. An empty password keeps the current one.
type UpdateInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// UserService serves the user directory, profiles and administration.
type UserService struct {
	reader   UserReader
	writer   UserWriter
	posts    MicropostReader
	events   *EventPublisher
	pageSize int
}

// NewUserService creates a new UserService.
func NewUserService(reader UserReader, writer UserWriter, posts MicropostReader, events *EventPublisher, pageSize int) *UserService {
	return &UserService{
		reader:   reader,
		writer:   writer,
		posts:    posts,
		events:   events,
		pageSize: pageSize,
	}
}

// Get returns the user with id or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error) {
	user, err := s.reader.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", id, "err", err)
		return nil, err
	}
	return user, nil
}

// List returns one page of all users in sign-up order.
func (s *UserService) List(ctx context.Context, page int) (*models.Page[models.UserDB], error) {
	p, err := pageOf(ctx, page, s.pageSize, s.reader.List, s.reader.Count)
	if err != nil {
		logger.Log.Errorw("failed to list users", "page", page, "err", err)
	}
	return p, err
}

// Following returns one page of the users userID follows.
func (s *UserService) Following(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.UserDB], error) {
	p, err := pageOf(ctx, page, s.pageSize,
		func(ctx context.Context, limit, offset int) ([]models.UserDB, error) {
			return s.reader.ListFollowing(ctx, userID, limit, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.reader.CountFollowing(ctx, userID)
		},
	)
	if err != nil {
		logger.Log.Errorw("failed to list following", "user_id", userID, "err", err)
	}
	return p, err
}

// Followers returns one page of the users following userID.
func (s *UserService) Followers(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.UserDB], error) {
	p, err := pageOf(ctx, page, s.pageSize,
		func(ctx context.Context, limit, offset int) ([]models.UserDB, error) {
			return s.reader.ListFollowers(ctx, userID, limit, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.reader.CountFollowers(ctx, userID)
		},
	)
	if err != nil {
		logger.Log.Errorw("failed to list followers", "user_id", userID, "err", err)
	}
	return p, err
}

// Stats returns the micropost and follow counts of userID.
func (s *UserService) Stats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	var (
		stats models.UserStats
		err   error
	)
	if stats.Microposts, err = s.posts.CountByUser(ctx, userID); err != nil {
		logger.Log.Errorw("failed to count microposts", "user_id", userID, "err", err)
		return nil, err
	}
	if stats.Following, err = s.reader.CountFollowing(ctx, userID); err != nil {
		logger.Log.Errorw("failed to count following", "user_id", userID, "err", err)
		return nil, err
	}
	if stats.Followers, err = s.reader.CountFollowers(ctx, userID); err != nil {
		logger.Log.Errorw("failed to count followers", "user_id", userID, "err", err)
		return nil, err
	}
	return &stats, nil
}

// Update changes the profile of id on behalf of actorID. Only users may
// edit themselves. A new password gets a new salt.
func (s *UserService) Update(ctx context.Context, actorID, id uuid.UUID, in UpdateInput) (*models.UserDB, error) {
	if actorID != id {
		return nil, ErrForbidden
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var errs validator.Errors
	validator.ValidateName(name, &errs)
	validator.ValidateEmail(email, &errs)
	if in.Password != "" || in.PasswordConfirmation != "" {
		validator.ValidatePassword(in.Password, in.PasswordConfirmation, &errs)
	}
	if errs.HasErrors() {
		return nil, errs
	}

	user.Name = name
	user.Email = email
	if in.Password != "" {
		if err := setPassword(user, in.Password); err != nil {
			logger.Log.Errorw("failed to generate salt", "err", err)
			return nil, err
		}
	}

	err = s.writer.Update(ctx, user)
	switch {
	case errors.Is(err, repositories.ErrConflict):
		errs.Add("email", "has already been taken")
		return nil, errs
	case errors.Is(err, repositories.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		logger.Log.Errorw("failed to update user", "user_id", id, "err", err)
		return nil, err
	}

	s.events.Publish(ctx, models.EventUserUpdated, actorID, id)
	return user, nil
}

// Destroy deletes user id with its microposts and follow edges. Only
// administrators may destroy users, and never themselves.
func (s *UserService) Destroy(ctx context.Context, actor *models.UserDB, id uuid.UUID) error {
	if actor == nil || !actor.Admin || actor.ID == id {
		return ErrForbidden
	}

	err := s.writer.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to delete user", "user_id", id, "err", err)
		return err
	}

	s.events.Publish(ctx, models.EventUserDeleted, actor.ID, id)
	return nil
}
