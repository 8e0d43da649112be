package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/views"
	"github.com/stretchr/testify/assert"
)

func newTestUser(name string) *models.UserDB {
	return &models.UserDB{
		ID:    uuid.New(),
		Name:  name,
		Email: strings.ToLower(name) + "@example.com",
	}
}

func formRequest(method, target string, form url.Values) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func signedIn(r *http.Request, user *models.UserDB) *http.Request {
	return r.WithContext(middlewares.WithCurrentUser(r.Context(), user))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// expectRender records the page passed to the renderer into got.
func expectRender(renderer *MockRenderer, status int, name string, got **views.Page) {
	renderer.EXPECT().
		Render(gomock.Any(), status, name, gomock.Any()).
		Do(func(w http.ResponseWriter, status int, _ string, page *views.Page) {
			*got = page
			w.WriteHeader(status)
		})
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flashOf decodes the flash cookie set on w.
func flashOf(t *testing.T, w *httptest.ResponseRecorder) *views.Flash {
	t.Helper()
	c := cookieNamed(w, "flash")
	if c == nil {
		return nil
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	return views.PopFlash(httptest.NewRecorder(), r)
}

func TestPageParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"page=3", 3},
		{"page=0", 1},
		{"page=-2", 1},
		{"page=abc", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			assert.Equal(t, tt.want, pageParam(r))
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	assert.Equal(t, "203.0.113.7", clientIP(r))

	r.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientIP(r))
}

func TestIDParam(t *testing.T) {
	id := uuid.New()

	got, ok := idParam(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String()), "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = idParam(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "42"), "id")
	assert.False(t, ok)
}
