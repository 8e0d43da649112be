package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/sbilibin2017/microblog/internal/validator"
	"github.com/sbilibin2017/microblog/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMicropostCreateHandler(t *testing.T) {
	user := newTestUser("Alice")

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		posts := NewMockMicropostCreator(ctrl)
		posts.EXPECT().Create(gomock.Any(), user.ID, "hello").Return(&models.MicropostDB{ID: uuid.New()}, nil)

		r := signedIn(formRequest(http.MethodPost, "/microposts", url.Values{"content": {"hello"}}), user)
		w := httptest.NewRecorder()
		NewMicropostCreateHandler(NewMockRenderer(ctrl), posts, NewMockStatsReader(ctrl), NewMockFeedReader(ctrl)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		flash := flashOf(t, w)
		require.NotNil(t, flash)
		assert.Equal(t, "Micropost created!", flash.Message)
	})

	t.Run("invalid content re-renders home", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		var verrs validator.Errors
		verrs.Add("content", "can't be blank")

		stats := &models.UserStats{}
		feed := models.NewPage[models.MicropostDB](nil, 1, 30, 0)

		posts := NewMockMicropostCreator(ctrl)
		statsReader := NewMockStatsReader(ctrl)
		feedReader := NewMockFeedReader(ctrl)
		posts.EXPECT().Create(gomock.Any(), user.ID, "  ").Return(nil, verrs)
		statsReader.EXPECT().Stats(gomock.Any(), user.ID).Return(stats, nil)
		feedReader.EXPECT().Feed(gomock.Any(), user.ID, 1).Return(feed, nil)

		renderer := NewMockRenderer(ctrl)
		var page *views.Page
		expectRender(renderer, http.StatusUnprocessableEntity, "home", &page)

		r := signedIn(formRequest(http.MethodPost, "/microposts", url.Values{"content": {"  "}}), user)
		w := httptest.NewRecorder()
		NewMicropostCreateHandler(renderer, posts, statsReader, feedReader).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, page)
		assert.Equal(t, verrs, page.Errors)
		assert.Equal(t, &views.HomeData{Stats: stats, Feed: feed, Content: "  "}, page.Data)
	})
}

func TestMicropostDestroyHandler(t *testing.T) {
	user := newTestUser("Alice")
	id := uuid.New()

	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantFlash bool
	}{
		{"own micropost", nil, http.StatusSeeOther, true},
		{"someone else's micropost", services.ErrMicropostNotFound, http.StatusSeeOther, false},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			posts := NewMockMicropostDestroyer(ctrl)
			posts.EXPECT().Destroy(gomock.Any(), user.ID, id).Return(tt.err)

			r := httptest.NewRequest(http.MethodDelete, "/microposts/"+id.String(), nil)
			r = signedIn(withURLParam(r, "id", id.String()), user)
			w := httptest.NewRecorder()
			NewMicropostDestroyHandler(posts).ServeHTTP(w, r)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusSeeOther {
				assert.Equal(t, "/", w.Header().Get("Location"))
			}
			assert.Equal(t, tt.wantFlash, flashOf(t, w) != nil)
		})
	}
}
