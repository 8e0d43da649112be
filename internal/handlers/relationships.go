package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/services"
)

// NewFollowHandler makes the current user follow followed_id and returns
// to that user's profile.
func NewFollowHandler(follows Follower) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.CurrentUser(ctx)
		followedID, err := uuid.Parse(r.PostFormValue("followed_id"))
		if user == nil || err != nil {
			redirect(w, r, "/")
			return
		}

		err = follows.Follow(ctx, user.ID, followedID)
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			redirect(w, r, "/")
			return
		case errors.Is(err, services.ErrAlreadyFollowing), errors.Is(err, services.ErrCannotFollowSelf):
		case err != nil:
			internalError(w, r, "failed to follow user", err)
			return
		}
		redirect(w, r, userPath(followedID))
	}
}

// NewUnfollowHandler makes the current user stop following {id}.
func NewUnfollowHandler(follows Unfollower) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.CurrentUser(ctx)
		followedID, ok := idParam(r, "id")
		if user == nil || !ok {
			redirect(w, r, "/")
			return
		}

		err := follows.Unfollow(ctx, user.ID, followedID)
		if err != nil && !errors.Is(err, services.ErrNotFollowing) {
			internalError(w, r, "failed to unfollow user", err)
			return
		}
		redirect(w, r, userPath(followedID))
	}
}
