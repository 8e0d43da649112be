package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/services"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=middlewares

// Tokener extracts the bearer token from a request.
type Tokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
}

// APIAuthMiddleware returns a middleware that resolves bearer tokens through
// the session store and stores the caller's user id in the request context.
// Revoked tokens and tokens of deleted users are rejected with 401.
func APIAuthMiddleware(tokener Tokener, auth SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, err := tokener.GetTokenFromRequest(ctx, r)
			if err != nil {
				logger.FromContext(ctx).Errorw("authorization failed", "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			user, err := auth.AuthenticateBySessionToken(ctx, tokenString)
			if errors.Is(err, services.ErrNotAuthenticated) {
				logger.FromContext(ctx).Errorw("authorization failed", "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if err != nil {
				logger.FromContext(ctx).Errorw("failed to resolve api token", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAPIUserID(ctx, user.ID)))
		})
	}
}

// WithAPIUserID stores the id of the API caller in ctx.
func WithAPIUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, apiUserIDKey, userID)
}

// APIUserID returns the id of the caller authenticated by APIAuthMiddleware.
func APIUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(apiUserIDKey).(uuid.UUID)
	return id, ok
}
