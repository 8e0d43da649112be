package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/sbilibin2017/microblog/internal/validator"
	"github.com/sbilibin2017/microblog/internal/views"
)

// NewSignupFormHandler renders the registration form.
func NewSignupFormHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderer.Render(w, http.StatusOK, "signup", newPage(w, r, "Sign Up", &views.UserFormData{}))
	}
}

// NewRegisterHandler creates an account from the registration form and
// signs the new user in. Invalid input re-renders the form with every error.
func NewRegisterHandler(renderer Renderer, reg Registerer, sessions SessionStarter, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		in := services.RegisterInput{
			Name:                 r.PostFormValue("name"),
			Email:                r.PostFormValue("email"),
			Password:             r.PostFormValue("password"),
			PasswordConfirmation: r.PostFormValue("password_confirmation"),
		}

		user, err := reg.Register(ctx, in)
		var verrs validator.Errors
		if errors.As(err, &verrs) {
			page := newPage(w, r, "Sign Up", &views.UserFormData{Name: in.Name, Email: in.Email})
			page.Errors = verrs
			renderer.Render(w, http.StatusUnprocessableEntity, "signup", page)
			return
		}
		if err != nil {
			internalError(w, r, "failed to register user", err)
			return
		}

		session, err := sessions.SignIn(ctx, user, false)
		if err != nil {
			internalError(w, r, "failed to sign in new user", err)
			return
		}
		middlewares.SetSessionCookie(w, session.Token, session.ExpiresAt, session.Remember, secureCookie)
		views.SetFlash(w, views.FlashSuccess, "Welcome to the Sample App!")
		redirect(w, r, userPath(user.ID))
	}
}

// NewUsersIndexHandler renders the user directory.
func NewUsersIndexHandler(renderer Renderer, users UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := users.List(r.Context(), pageParam(r))
		if err != nil {
			internalError(w, r, "failed to list users", err)
			return
		}
		renderer.Render(w, http.StatusOK, "users_index", newPage(w, r, "All users", &views.UsersData{Users: p}))
	}
}

// NewUserShowHandler renders a profile with its microposts. Unknown users
// redirect home.
func NewUserShowHandler(
	renderer Renderer,
	users UserGetter,
	stats StatsReader,
	posts MicropostLister,
	follows FollowChecker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := idParam(r, "id")
		if !ok {
			redirect(w, r, "/")
			return
		}

		user, err := users.Get(ctx, id)
		if errors.Is(err, services.ErrUserNotFound) {
			redirect(w, r, "/")
			return
		}
		if err != nil {
			internalError(w, r, "failed to get user", err)
			return
		}

		s, err := stats.Stats(ctx, user.ID)
		if err != nil {
			internalError(w, r, "failed to get user stats", err)
			return
		}

		p, err := posts.ListByUser(ctx, user.ID, pageParam(r))
		if err != nil {
			internalError(w, r, "failed to list microposts", err)
			return
		}

		data := &views.ProfileData{User: user, Stats: s, Microposts: p}
		if current := middlewares.CurrentUser(ctx); current != nil && current.ID != user.ID {
			if data.Following, err = follows.IsFollowing(ctx, current.ID, user.ID); err != nil {
				internalError(w, r, "failed to check relationship", err)
				return
			}
		}

		renderer.Render(w, http.StatusOK, "user_show", newPage(w, r, user.Name, data))
	}
}

// NewUserEditHandler renders the profile form of the current user.
func NewUserEditHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.CurrentUser(r.Context())
		if user == nil {
			redirect(w, r, "/signin")
			return
		}
		data := &views.UserFormData{User: user, Name: user.Name, Email: user.Email}
		renderer.Render(w, http.StatusOK, "user_edit", newPage(w, r, "Edit user", data))
	}
}

// NewUserUpdateHandler saves the profile form of the current user.
func NewUserUpdateHandler(renderer Renderer, users UserUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		current := middlewares.CurrentUser(ctx)
		id, ok := idParam(r, "id")
		if current == nil || !ok {
			redirect(w, r, "/")
			return
		}

		in := services.UpdateInput{
			Name:                 r.PostFormValue("name"),
			Email:                r.PostFormValue("email"),
			Password:             r.PostFormValue("password"),
			PasswordConfirmation: r.PostFormValue("password_confirmation"),
		}

		user, err := users.Update(ctx, current.ID, id, in)
		var verrs validator.Errors
		switch {
		case errors.As(err, &verrs):
			page := newPage(w, r, "Edit user", &views.UserFormData{User: current, Name: in.Name, Email: in.Email})
			page.Errors = verrs
			renderer.Render(w, http.StatusUnprocessableEntity, "user_edit", page)
			return
		case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrUserNotFound):
			redirect(w, r, "/")
			return
		case err != nil:
			internalError(w, r, "failed to update user", err)
			return
		}

		views.SetFlash(w, views.FlashSuccess, "Profile updated.")
		redirect(w, r, userPath(user.ID))
	}
}

// NewUserDestroyHandler deletes a user on behalf of an administrator.
func NewUserDestroyHandler(users UserDestroyer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			redirect(w, r, "/users")
			return
		}

		err := users.Destroy(r.Context(), middlewares.CurrentUser(r.Context()), id)
		switch {
		case errors.Is(err, services.ErrForbidden):
			views.SetFlash(w, views.FlashError, "You cannot delete yourself.")
		case errors.Is(err, services.ErrUserNotFound):
			views.SetFlash(w, views.FlashError, "User not found.")
		case err != nil:
			internalError(w, r, "failed to destroy user", err)
			return
		default:
			views.SetFlash(w, views.FlashSuccess, "User destroyed.")
		}
		redirect(w, r, "/users")
	}
}

// NewFollowingHandler lists the users a user follows.
func NewFollowingHandler(renderer Renderer, users UserGetter, stats StatsReader, follows FollowLister) http.HandlerFunc {
	return newFollowListHandler(renderer, users, stats, "Following", "following", follows.Following)
}

// NewFollowersHandler lists the followers of a user.
func NewFollowersHandler(renderer Renderer, users UserGetter, stats StatsReader, follows FollowLister) http.HandlerFunc {
	return newFollowListHandler(renderer, users, stats, "Followers", "followers", follows.Followers)
}

type listFunc func(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.UserDB], error)

func newFollowListHandler(renderer Renderer, users UserGetter, stats StatsReader, heading, suffix string, list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, ok := idParam(r, "id")
		if !ok {
			redirect(w, r, "/")
			return
		}

		user, err := users.Get(ctx, id)
		if errors.Is(err, services.ErrUserNotFound) {
			redirect(w, r, "/")
			return
		}
		if err != nil {
			internalError(w, r, "failed to get user", err)
			return
		}

		s, err := stats.Stats(ctx, user.ID)
		if err != nil {
			internalError(w, r, "failed to get user stats", err)
			return
		}

		p, err := list(ctx, user.ID, pageParam(r))
		if err != nil {
			internalError(w, r, "failed to list "+suffix, err)
			return
		}

		data := &views.FollowData{
			Heading: heading,
			Path:    userPath(user.ID) + "/" + suffix,
			User:    user,
			Stats:   s,
			Users:   p,
		}
		renderer.Render(w, http.StatusOK, "follow_list", newPage(w, r, heading, data))
	}
}
