package handlers

import (
	"errors"
	"net/http"

	"github.com/sbilibin2017/microblog/internal/middlewares"
	"github.com/sbilibin2017/microblog/internal/services"
	"github.com/sbilibin2017/microblog/internal/views"
)

// NewSigninFormHandler renders the sign-in form.
func NewSigninFormHandler(renderer Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderer.Render(w, http.StatusOK, "signin", newPage(w, r, "Sign in", &views.SigninData{}))
	}
}

// NewSigninHandler signs a user in and sends them back to the page they
// were sent away from, or to their profile.
func NewSigninHandler(renderer Renderer, auth Authenticator, sessions SessionStarter, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email := r.PostFormValue("email")
		password := r.PostFormValue("password")
		remember := r.PostFormValue("remember_me") == "1"

		fail := func(status int, msg string) {
			page := newPage(w, r, "Sign in", &views.SigninData{Email: email, Remember: remember})
			page.Flash = &views.Flash{Kind: views.FlashError, Message: msg}
			renderer.Render(w, status, "signin", page)
		}

		if err := auth.AllowSignIn(ctx, clientIP(r)); err != nil {
			fail(http.StatusTooManyRequests, "Too many sign-in attempts. Please try again later.")
			return
		}

		user, err := auth.Authenticate(ctx, email, password)
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(http.StatusUnprocessableEntity, "Invalid email/password combination.")
			return
		}
		if err != nil {
			internalError(w, r, "failed to authenticate user", err)
			return
		}

		session, err := sessions.SignIn(ctx, user, remember)
		if err != nil {
			internalError(w, r, "failed to sign in user", err)
			return
		}
		middlewares.SetSessionCookie(w, session.Token, session.ExpiresAt, session.Remember, secureCookie)
		redirect(w, r, middlewares.PopReturnTo(w, r, userPath(user.ID)))
	}
}

// NewSignoutHandler revokes the session token and clears the cookie.
func NewSignoutHandler(auth SignOuter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.SignOut(r.Context(), middlewares.SessionToken(r)); err != nil {
			internalError(w, r, "failed to sign out", err)
			return
		}
		middlewares.ClearSessionCookie(w)
		redirect(w, r, "/")
	}
}
