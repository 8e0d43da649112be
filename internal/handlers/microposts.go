package handlers

import (
	"errors"
	"net/http"

	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/sbilibin2017/microblog/internal/validator"
	"github.com/sbilibin2017/microblog/internal/views"
)

// NewMicropostCreateHandler posts the home page form. Invalid content
// re-renders the home page with the errors and the rejected text.
func NewMicropostCreateHandler(renderer Renderer, posts MicropostCreator, stats StatsReader, feed FeedReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.CurrentUser(ctx)
		if user == nil {
			redirect(w, r, "/signin")
			return
		}

		content := r.PostFormValue("content")
		_, err := posts.Create(ctx, user.ID, content)
		var verrs validator.Errors
		if errors.As(err, &verrs) {
			data, err := loadHome(ctx, stats, feed, user, 1)
			if err != nil {
				internalError(w, r, "failed to load home page", err)
				return
			}
			data.Content = content

			page := newPage(w, r, "Home", data)
			page.Errors = verrs
			renderer.Render(w, http.StatusUnprocessableEntity, "home", page)
			return
		}
		if err != nil {
			internalError(w, r, "failed to create micropost", err)
			return
		}

		views.SetFlash(w, views.FlashSuccess, "Micropost created!")
		redirect(w, r, "/")
	}
}

// NewMicropostDestroyHandler deletes a micropost of the current user.
// Microposts of other users are left alone.
func NewMicropostDestroyHandler(posts MicropostDestroyer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user := middlewares.CurrentUser(ctx)
		id, ok := idParam(r, "id")
		if user == nil || !ok {
			redirect(w, r, "/")
			return
		}

		err := posts.Destroy(ctx, user.ID, id)
		if errors.Is(err, services.ErrMicropostNotFound) {
			redirect(w, r, "/")
			return
		}
		if err != nil {
			internalError(w, r, "failed to destroy micropost", err)
			return
		}

		views.SetFlash(w, views.FlashSuccess, "Micropost deleted.")
		redirect(w, r, "/")
	}
}
