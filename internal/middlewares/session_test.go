package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMiddleware(t *testing.T) {
	user := &models.UserDB{ID: uuid.New(), Name: "Steve"}

	tests := []struct {
		name        string
		cookie      string
		mockSetup   func(m *MockSessionAuthenticator)
		wantUser    bool
		wantCleared bool
	}{
		{
			name:      "no cookie",
			mockSetup: func(m *MockSessionAuthenticator) {},
		},
		{
			name:   "valid session",
			cookie: "good",
			mockSetup: func(m *MockSessionAuthenticator) {
				m.EXPECT().AuthenticateBySessionToken(gomock.Any(), "good").Return(user, nil)
			},
			wantUser: true,
		},
		{
			name:   "revoked session",
			cookie: "revoked",
			mockSetup: func(m *MockSessionAuthenticator) {
				m.EXPECT().AuthenticateBySessionToken(gomock.Any(), "revoked").Return(nil, services.ErrNotAuthenticated)
			},
			wantCleared: true,
		},
		{
			name:   "store unavailable",
			cookie: "good",
			mockSetup: func(m *MockSessionAuthenticator) {
				m.EXPECT().AuthenticateBySessionToken(gomock.Any(), "good").Return(nil, errors.New("redis down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			auth := NewMockSessionAuthenticator(ctrl)
			tt.mockSetup(auth)

			var got *models.UserDB
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = CurrentUser(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			SessionMiddleware(auth)(next).ServeHTTP(rr, req)

			if tt.wantUser {
				assert.Equal(t, user, got)
			} else {
				assert.Nil(t, got)
			}

			cleared := false
			for _, c := range rr.Result().Cookies() {
				if c.Name == SessionCookie && c.MaxAge < 0 {
					cleared = true
				}
			}
			assert.Equal(t, tt.wantCleared, cleared)
		})
	}
}

func TestSetSessionCookie(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok", expires, true, true)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.False(t, cookies[0].Expires.IsZero())

	rr = httptest.NewRecorder()
	SetSessionCookie(rr, "tok", expires, false, false)
	cookies = rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Expires.IsZero())
}
