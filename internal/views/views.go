// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"crypto/md5"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/validator"
)

//go:embed templates
var templatesFS embed.FS

const baseTitle = "Sample App"

// Page is passed to every template.
type Page struct {
	Title       string
	CurrentUser *models.UserDB
	Flash       *Flash
	Errors      validator.Errors
	Data        any
}

// HomeData backs the home page of a signed-in user.
type HomeData struct {
	Stats   *models.UserStats
	Feed    *models.Page[models.MicropostDB]
	Content string
}

// ProfileData backs the profile page.
type ProfileData struct {
	User       *models.UserDB
	Stats      *models.UserStats
	Microposts *models.Page[models.MicropostDB]
	Following  bool // Following reports whether the current user follows User.
}

// UsersData backs the user directory.
type UsersData struct {
	Users *models.Page[models.UserDB]
}

// FollowData backs the following and followers listings.
type FollowData struct {
	Heading string
	Path    string
	User    *models.UserDB
	Stats   *models.UserStats
	Users   *models.Page[models.UserDB]
}

// UserFormData backs sign up and profile edit.
type UserFormData struct {
	User  *models.UserDB
	Name  string
	Email string
}

// SigninData backs the sign-in form.
type SigninData struct {
	Email    string
	Remember bool
}

// Pager is the input of the pagination partial.
type Pager struct {
	Path       string
	Number     int
	TotalPages int
}

func (p Pager) HasPrev() bool { return p.Number > 1 }
func (p Pager) HasNext() bool { return p.Number < p.TotalPages }
func (p Pager) Prev() int     { return p.Number - 1 }
func (p Pager) Next() int     { return p.Number + 1 }

func (p Pager) Numbers() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// PostView is the input of the micropost partial.
type PostView struct {
	Post      models.MicropostDB
	CanDelete bool
	ShowUser  bool
}

// UserItem is the input of the user list partial.
type UserItem struct {
	User      models.UserDB
	CanDelete bool
}

// StatsView is the input of the follow counts partial.
type StatsView struct {
	User  *models.UserDB
	Stats *models.UserStats
}

var funcs = template.FuncMap{
	"fullTitle":  FullTitle,
	"gravatar":   Gravatar,
	"timeAgo":    TimeAgo,
	"sameUser":   sameUser,
	"pager":      newPager,
	"post":       newPostView,
	"userItem":   newUserItem,
	"stats":      newStatsView,
	"fieldError": fieldError,
}

func sameUser(u *models.UserDB, id uuid.UUID) bool {
	return u != nil && u.ID == id
}

func newPager(path string, number, totalPages int) Pager {
	return Pager{Path: path, Number: number, TotalPages: totalPages}
}

func newPostView(current *models.UserDB, m models.MicropostDB, showUser bool) PostView {
	return PostView{Post: m, CanDelete: sameUser(current, m.UserID), ShowUser: showUser}
}

func newUserItem(current *models.UserDB, u models.UserDB) UserItem {
	return UserItem{User: u, CanDelete: current != nil && current.Admin && current.ID != u.ID}
}

func newStatsView(u *models.UserDB, stats *models.UserStats) StatsView {
	return StatsView{User: u, Stats: stats}
}

func fieldError(errs validator.Errors, field string) bool {
	return len(errs.For(field)) > 0
}

// Renderer executes the embedded page templates inside the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page under templates/ together with the layout and partials.
func New() (*Renderer, error) {
	pages, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS,
			"templates/layout.html",
			"templates/partials/*.html",
			page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page name with status. The page is executed into a buffer
// first so a template error still yields a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page *Page) {
	t, ok := r.pages[name]
	if !ok {
		logger.Log.Errorw("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		logger.Log.Errorw("failed to render template", "name", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// FullTitle appends the page title to the site title.
func FullTitle(title string) string {
	if title == "" {
		return baseTitle
	}
	return baseTitle + " | " + title
}

// Gravatar returns the avatar image URL for email.
func Gravatar(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?s=%d", hex.EncodeToString(sum[:]), size)
}

// TimeAgo describes how long ago t was, e.g. "5 minutes".
func TimeAgo(t time.Time) string {
	return timeAgo(time.Since(t))
}

func timeAgo(d time.Duration) string {
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}

	switch {
	case d < time.Minute:
		return "less than a minute"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "month")
	default:
		return plural(int(d/(365*24*time.Hour)), "year")
	}
}
