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

// MicropostService handles authoring and reading microposts.
type MicropostService struct {
	writer   MicropostWriter
	reader   MicropostReader
	events   *EventPublisher
	pageSize int
}

// NewMicropostService creates a new MicropostService.
func NewMicropostService(writer MicropostWriter, reader MicropostReader, events *EventPublisher, pageSize int) *MicropostService {
	return &MicropostService{
		writer:   writer,
		reader:   reader,
		events:   events,
		pageSize: pageSize,
	}
}

// Create posts content on behalf of ownerID.
func (s *MicropostService) Create(ctx context.Context, ownerID uuid.UUID, content string) (*models.MicropostDB, error) {
	content = strings.TrimSpace(content)

	var errs validator.Errors
	validator.ValidateContent(content, models.MicropostMaxLength, &errs)
	if errs.HasErrors() {
		return nil, errs
	}

	micropost := &models.MicropostDB{
		ID:      uuid.New(),
		UserID:  ownerID,
		Content: content,
	}

	err := s.writer.Create(ctx, micropost)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to save micropost", "user_id", ownerID, "err", err)
		return nil, err
	}

	s.events.Publish(ctx, models.EventMicropostCreated, ownerID, micropost.ID)
	return micropost, nil
}

// Destroy deletes micropostID if it belongs to userID. A micropost owned by
// someone else is reported as ErrMicropostNotFound.
func (s *MicropostService) Destroy(ctx context.Context, userID, micropostID uuid.UUID) error {
	err := s.writer.DeleteOwned(ctx, micropostID, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrMicropostNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to delete micropost", "micropost_id", micropostID, "err", err)
		return err
	}

	s.events.Publish(ctx, models.EventMicropostDeleted, userID, micropostID)
	return nil
}

// ListByUser returns one page of the microposts of userID, newest first.
func (s *MicropostService) ListByUser(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.MicropostDB], error) {
	p, err := pageOf(ctx, page, s.pageSize,
		func(ctx context.Context, limit, offset int) ([]models.MicropostDB, error) {
			return s.reader.ListByUser(ctx, userID, limit, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.reader.CountByUser(ctx, userID)
		},
	)
	if err != nil {
		logger.Log.Errorw("failed to list microposts", "user_id", userID, "err", err)
	}
	return p, err
}

// Feed returns one page of the microposts written by the users userID
// follows, newest first.
func (s *MicropostService) Feed(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.MicropostDB], error) {
	p, err := pageOf(ctx, page, s.pageSize,
		func(ctx context.Context, limit, offset int) ([]models.MicropostDB, error) {
			return s.reader.Feed(ctx, userID, limit, offset)
		},
		func(ctx context.Context) (int, error) {
			return s.reader.CountFeed(ctx, userID)
		},
	)
	if err != nil {
		logger.Log.Errorw("failed to load feed", "user_id", userID, "err", err)
	}
	return p, err
}
