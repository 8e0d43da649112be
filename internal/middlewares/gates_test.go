package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withUser(r *http.Request, user *models.UserDB) *http.Request {
	if user == nil {
		return r
	}
	return r.WithContext(WithCurrentUser(r.Context(), user))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func cookieValue(rr *httptest.ResponseRecorder, name string) string {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestRequireSignIn(t *testing.T) {
	t.Run("anonymous GET is redirected and remembered", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RequireSignIn(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users?page=2", nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/signin", rr.Header().Get("Location"))
		assert.Equal(t, "/users?page=2", cookieValue(rr, returnToCookie))
		assert.NotEmpty(t, cookieValue(rr, "flash"))
	})

	t.Run("anonymous POST is not remembered", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RequireSignIn(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/microposts", nil))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Empty(t, cookieValue(rr, returnToCookie))
	})

	t.Run("signed in passes", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodGet, "/users", nil), &models.UserDB{ID: uuid.New()})
		RequireSignIn(okHandler).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRequireCorrectUser(t *testing.T) {
	user := &models.UserDB{ID: uuid.New()}

	tests := []struct {
		name   string
		user   *models.UserDB
		param  string
		status int
	}{
		{"own profile", user, user.ID.String(), http.StatusOK},
		{"other profile", user, uuid.NewString(), http.StatusSeeOther},
		{"anonymous", nil, user.ID.String(), http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/users/x/edit", nil), "id", tt.param)
			req = withUser(req, tt.user)

			rr := httptest.NewRecorder()
			RequireCorrectUser(okHandler).ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusSeeOther {
				assert.Equal(t, "/", rr.Header().Get("Location"))
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireAdmin(okHandler).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodDelete, "/users/1", nil), &models.UserDB{ID: uuid.New()}))
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = httptest.NewRecorder()
	RequireAdmin(okHandler).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodDelete, "/users/1", nil), &models.UserDB{ID: uuid.New(), Admin: true}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPopReturnTo(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{"none", "", "/users/me"},
		{"local path", "/users?page=2", "/users?page=2"},
		{"absolute url", "http://evil.example.com/", "/users/me"},
		{"protocol relative", "//evil.example.com/", "/users/me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: returnToCookie, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, PopReturnTo(httptest.NewRecorder(), req, "/users/me"))
		})
	}
}
