package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/oauth"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
)

func handleGoogleLogin(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if deps.Google == nil {
		http.NotFound(w, r)
		return nil
	}

	state, err := oauth.NewState()
	if err != nil {
		return err
	}
	deps.SessionManager.Put(r.Context(), sessionOAuthState, state)
	http.Redirect(w, r, deps.Google.AuthCodeURL(state), http.StatusFound)
	return nil
}

func handleGoogleCallback(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if deps.Google == nil {
		http.NotFound(w, r)
		return nil
	}

	logging.AddToEvent(r.Context(), slog.String("operation", "login_google"))

	want := deps.SessionManager.PopString(r.Context(), sessionOAuthState)
	q := r.URL.Query()
	if q.Get("error") != "" {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", q.Get("error")))
		redirectWithFlash(deps, w, r, routes.Login, "Google sign-in was cancelled.")
		return nil
	}

	identity, err := deps.Google.Exchange(r.Context(), want, q.Get("state"), q.Get("code"))
	if errors.Is(err, oauth.ErrStateMismatch) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "state_mismatch"))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil
	}
	if err != nil {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", err.Error()))
		redirectWithFlash(deps, w, r, routes.Login, "Google sign-in failed, try again.")
		return nil
	}

	user, err := deps.Auth.SignInWithGoogle(r.Context(), identity)
	if errors.Is(err, services.ErrUnverifiedEmail) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "unverified_email"))
		redirectWithFlash(deps, w, r, routes.Login, "Your Google account email is not verified.")
		return nil
	}
	if err != nil {
		return err
	}

	if err := deps.SessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	return signIn(deps, w, r, user)
}
