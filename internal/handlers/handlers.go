// Package handlers implements the HTML pages and the JSON API.
package handlers

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/sbilibin2017/microblog/internal/views"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

// Renderer writes an HTML page.
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page *views.Page)
}

// StatsReader returns the counters shown next to a user.
type StatsReader interface {
	Stats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
}

// FeedReader returns one page of a user's feed.
type FeedReader interface {
	Feed(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.MicropostDB], error)
}

// Registerer creates accounts.
type Registerer interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserDB, error)
}

// SessionStarter issues session tokens.
type SessionStarter interface {
	SignIn(ctx context.Context, user *models.UserDB, remember bool) (*services.Session, error)
}

// Authenticator checks sign-in attempts.
type Authenticator interface {
	AllowSignIn(ctx context.Context, clientKey string) error
	Authenticate(ctx context.Context, email, password string) (*models.UserDB, error)
}

// SignOuter revokes session tokens.
type SignOuter interface {
	SignOut(ctx context.Context, token string) error
}

// UserGetter loads a single user.
type UserGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
}

// UserLister pages through all users.
type UserLister interface {
	List(ctx context.Context, page int) (*models.Page[models.UserDB], error)
}

// FollowLister pages through both sides of the follow graph.
type FollowLister interface {
	Following(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.UserDB], error)
	Followers(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.UserDB], error)
}

// UserUpdater edits profiles.
type UserUpdater interface {
	Update(ctx context.Context, actorID, id uuid.UUID, in services.UpdateInput) (*models.UserDB, error)
}

// UserDestroyer deletes users.
type UserDestroyer interface {
	Destroy(ctx context.Context, actor *models.UserDB, id uuid.UUID) error
}

// MicropostLister pages through the microposts of a user.
type MicropostLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, page int) (*models.Page[models.MicropostDB], error)
}

// MicropostCreator posts microposts.
type MicropostCreator interface {
	Create(ctx context.Context, ownerID uuid.UUID, content string) (*models.MicropostDB, error)
}

// MicropostDestroyer deletes microposts owned by a user.
type MicropostDestroyer interface {
	Destroy(ctx context.Context, userID, micropostID uuid.UUID) error
}

// FollowChecker tells whether one user follows another.
type FollowChecker interface {
	IsFollowing(ctx context.Context, followerID, candidateID uuid.UUID) (bool, error)
}

// Follower creates follow edges.
type Follower interface {
	Follow(ctx context.Context, followerID, followedID uuid.UUID) error
}

// Unfollower removes follow edges.
type Unfollower interface {
	Unfollow(ctx context.Context, followerID, followedID uuid.UUID) error
}

// Loginer exchanges credentials for an API token.
type Loginer interface {
	AllowSignIn(ctx context.Context, clientKey string) error
	Login(ctx context.Context, email, password string) (string, error)
}

// Pinger checks a backing store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// newPage builds the common template input and consumes the pending flash.
func newPage(w http.ResponseWriter, r *http.Request, title string, data any) *views.Page {
	return &views.Page{
		Title:       title,
		CurrentUser: middlewares.CurrentUser(r.Context()),
		Flash:       views.PopFlash(w, r),
		Data:        data,
	}
}

// pageParam returns the 1-based ?page= query value.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func idParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// clientIP is the sign-in throttling key.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func userPath(id uuid.UUID) string {
	return "/users/" + id.String()
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.FromContext(r.Context()).Errorw(msg, "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
