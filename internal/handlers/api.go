package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/sbilibin2017/microblog/internal/validator"
)

// MicropostResponse represents a micropost with its author
// swagger:model MicropostResponse
type MicropostResponse struct {
	// Micropost ID
	// default: 0b7d1c3e-6f7a-4d0e-9a57-0d8e1f0f4b1a
	ID uuid.UUID `json:"id"`

	// Author ID
	// default: 5f0c2c1e-2b8a-4c55-8a0e-6d7b3c0f9e21
	UserID uuid.UUID `json:"user_id"`

	// Author name
	// default: Example User
	AuthorName string `json:"author_name"`

	// Content
	// default: Lorem ipsum dolor sit amet
	Content string `json:"content"`

	// Creation time
	CreatedAt time.Time `json:"created_at"`
}

// FeedResponse is one page of the caller's feed
// swagger:model FeedResponse
type FeedResponse struct {
	Items []MicropostResponse `json:"items"`

	// Page number, starting at 1
	// default: 1
	Page int `json:"page"`

	// Page size
	// default: 30
	PerPage int `json:"per_page"`

	// Total number of microposts in the feed
	// default: 0
	Total int `json:"total"`
}

// CreateMicropostRequest represents the JSON body for posting
// swagger:model CreateMicropostRequest
type CreateMicropostRequest struct {
	// Content, at most 140 characters
	// required: true
	// default: Lorem ipsum dolor sit amet
	Content string `json:"content"`
}

// ValidationErrorResponse lists every rejected field
// swagger:model ValidationErrorResponse
type ValidationErrorResponse struct {
	// Error message
	// default: Validation failed
	Error  string                 `json:"error"`
	Errors []validator.FieldError `json:"errors"`
}

func newMicropostResponse(m models.MicropostDB) MicropostResponse {
	return MicropostResponse{
		ID:         m.ID,
		UserID:     m.UserID,
		AuthorName: m.AuthorName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// NewAPIFeedHandler returns an HTTP handler for the caller's feed.
// @Summary Get feed
// @Description Microposts of the users the caller follows, newest first
// @Tags microposts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} handlers.FeedResponse "Feed page"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /feed [get]
// @Security BearerAuth
func NewAPIFeedHandler(feed FeedReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middlewares.APIUserID(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}

		p, err := feed.Feed(r.Context(), userID, pageParam(r))
		if err != nil {
			logger.Log.Errorw("failed to get feed", "userID", userID, "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		resp := FeedResponse{
			Items:   make([]MicropostResponse, 0, len(p.Items)),
			Page:    p.Number,
			PerPage: p.Size,
			Total:   p.Total,
		}
		for _, m := range p.Items {
			resp.Items = append(resp.Items, newMicropostResponse(m))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NewAPICreateMicropostHandler returns an HTTP handler for posting.
// @Summary Create micropost
// @Description Post a micropost as the caller
// @Tags microposts
// @Accept json
// @Produce json
// @Param createMicropostRequest body handlers.CreateMicropostRequest true "Micropost"
// @Success 201 {object} handlers.MicropostResponse "Micropost created"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 422 {object} handlers.ValidationErrorResponse "Invalid content"
// @Router /microposts [post]
// @Security BearerAuth
func NewAPICreateMicropostHandler(posts MicropostCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middlewares.APIUserID(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}

		var req CreateMicropostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}

		m, err := posts.Create(r.Context(), userID, req.Content)
		var verrs validator.Errors
		switch {
		case errors.As(err, &verrs):
			writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Error: "Validation failed", Errors: verrs})
			return
		case errors.Is(err, services.ErrUserNotFound):
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		case err != nil:
			logger.Log.Errorw("failed to create micropost", "userID", userID, "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		writeJSON(w, http.StatusCreated, newMicropostResponse(*m))
	}
}

// NewAPIDeleteMicropostHandler returns an HTTP handler for deleting one of
// the caller's microposts.
// @Summary Delete micropost
// @Tags microposts
// @Param id path string true "Micropost ID"
// @Success 204 "Micropost deleted"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Micropost not found"
// @Router /microposts/{id} [delete]
// @Security BearerAuth
func NewAPIDeleteMicropostHandler(posts MicropostDestroyer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middlewares.APIUserID(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}

		id, ok := idParam(r, "id")
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Micropost not found"})
			return
		}

		err := posts.Destroy(r.Context(), userID, id)
		switch {
		case errors.Is(err, services.ErrMicropostNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Micropost not found"})
			return
		case err != nil:
			logger.Log.Errorw("failed to delete micropost", "userID", userID, "micropostID", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewAPIFollowHandler returns an HTTP handler that makes the caller follow {id}.
// @Summary Follow user
// @Tags relationships
// @Param id path string true "User ID"
// @Success 204 "Now following"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 409 {object} handlers.ErrorResponse "Already following"
// @Failure 422 {object} handlers.ErrorResponse "Cannot follow yourself"
// @Router /users/{id}/follow [post]
// @Security BearerAuth
func NewAPIFollowHandler(follows Follower) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middlewares.APIUserID(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}

		followedID, ok := idParam(r, "id")
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}

		err := follows.Follow(r.Context(), userID, followedID)
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		case errors.Is(err, services.ErrAlreadyFollowing):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "Already following"})
			return
		case errors.Is(err, services.ErrCannotFollowSelf):
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "Cannot follow yourself"})
			return
		case err != nil:
			logger.Log.Errorw("failed to follow user", "userID", userID, "followedID", followedID, "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewAPIUnfollowHandler returns an HTTP handler that makes the caller stop
// following {id}.
// @Summary Unfollow user
// @Tags relationships
// @Param id path string true "User ID"
// @Success 204 "No longer following"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Not following"
// @Router /users/{id}/follow [delete]
// @Security BearerAuth
func NewAPIUnfollowHandler(follows Unfollower) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middlewares.APIUserID(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			return
		}

		followedID, ok := idParam(r, "id")
		if !ok {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not following"})
			return
		}

		err := follows.Unfollow(r.Context(), userID, followedID)
		switch {
		case errors.Is(err, services.ErrNotFollowing):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not following"})
			return
		case err != nil:
			logger.Log.Errorw("failed to unfollow user", "userID", userID, "followedID", followedID, "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
