package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/views"
)

// NewStaticPageHandler renders a page without data, such as About or Help.
func NewStaticPageHandler(renderer Renderer, name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderer.Render(w, http.StatusOK, name, newPage(w, r, title, nil))
	}
}

// NewHomeHandler renders the home page. Signed-in users get the micropost
// form, their feed and their counters.
func NewHomeHandler(renderer Renderer, stats StatsReader, feed FeedReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := newPage(w, r, "Home", nil)
		if page.CurrentUser == nil {
			renderer.Render(w, http.StatusOK, "home", page)
			return
		}

		data, err := loadHome(r.Context(), stats, feed, page.CurrentUser, pageParam(r))
		if err != nil {
			internalError(w, r, "failed to load home page", err)
			return
		}
		page.Data = data
		renderer.Render(w, http.StatusOK, "home", page)
	}
}

func loadHome(ctx context.Context, stats StatsReader, feed FeedReader, user *models.UserDB, number int) (*views.HomeData, error) {
	s, err := stats.Stats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	f, err := feed.Feed(ctx, user.ID, number)
	if err != nil {
		return nil, err
	}
	return &views.HomeData{Stats: s, Feed: f}, nil
}
