package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/services"
)

//go:generate mockgen -source=session.go -destination=mock_session.go -package=middlewares

// SessionCookie holds the signed session token.
const SessionCookie = "remember_token"

// SessionAuthenticator restores the user a session token was issued to.
type SessionAuthenticator interface {
	AuthenticateBySessionToken(ctx context.Context, token string) (*models.UserDB, error)
}

// SessionMiddleware resolves the session cookie into the current user.
// Requests without a valid session continue anonymously; a rejected
// token is also removed from the client.
func SessionMiddleware(auth SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.AuthenticateBySessionToken(r.Context(), token)
			if errors.Is(err, services.ErrNotAuthenticated) {
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.FromContext(r.Context()).Errorw("failed to restore session", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), user)))
		})
	}
}

// WithCurrentUser stores the signed-in user in ctx.
func WithCurrentUser(ctx context.Context, user *models.UserDB) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// CurrentUser returns the signed-in user or nil.
func CurrentUser(ctx context.Context) *models.UserDB {
	user, _ := ctx.Value(currentUserKey).(*models.UserDB)
	return user
}

// SessionToken returns the session token sent by the client, if any.
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSessionCookie sends token to the client. A persistent cookie outlives
// the browser session; otherwise the cookie has no expiry.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, persistent, secure bool) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if persistent {
		c.Expires = expires
	}
	http.SetCookie(w, c)
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
