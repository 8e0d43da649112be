package middlewares

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/microblog/internal/views"
)

const returnToCookie = "return_to"

// RequireSignIn redirects anonymous callers to the sign-in page with a
// notice. The requested page is remembered for GET requests.
func RequireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{
				Name:     returnToCookie,
				Value:    r.URL.RequestURI(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		views.SetFlash(w, views.FlashNotice, "Please sign in to access this page.")
		http.Redirect(w, r, "/signin", http.StatusSeeOther)
	})
}

// RequireCorrectUser redirects home unless the {id} URL parameter is the
// current user. Must run after RequireSignIn.
func RequireCorrectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil || chi.URLParam(r, "id") != user.ID.String() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin redirects home unless the current user is an administrator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil || !user.Admin {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PopReturnTo returns the page remembered by RequireSignIn, or fallback,
// and forgets it. Only local paths are honored.
func PopReturnTo(w http.ResponseWriter, r *http.Request, fallback string) string {
	c, err := r.Cookie(returnToCookie)
	if err != nil {
		return fallback
	}
	http.SetCookie(w, &http.Cookie{
		Name:     returnToCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	if !strings.HasPrefix(c.Value, "/") || strings.HasPrefix(c.Value, "//") || strings.HasPrefix(c.Value, "/\\") {
		return fallback
	}
	return c.Value
}
