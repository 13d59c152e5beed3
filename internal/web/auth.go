package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/middleware"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/PauloHFS/hcportal/internal/view/pages"
)

func handleHome(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if deps.SessionManager.GetInt64(r.Context(), middleware.SessionUserID) != 0 {
		http.Redirect(w, r, routes.MyShifts, http.StatusSeeOther)
		return nil
	}
	http.Redirect(w, r, routes.Login, http.StatusSeeOther)
	return nil
}

func handleLoginPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return render(w, r, "login", pages.Login(pages.LoginData{Google: deps.Google != nil}))
}

func handleLogin(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	logging.AddToEvent(r.Context(),
		slog.String("operation", "login"),
		slog.String("email_domain", emailDomain(email)),
	)

	user, err := deps.Auth.Authenticate(r.Context(), email, password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		logging.AddToEvent(r.Context(),
			slog.String("outcome", "error"),
			slog.String("error_reason", "invalid_credentials"),
		)
		return render(w, r, "login", pages.Login(pages.LoginData{
			Email:  email,
			Error:  "Invalid email or password",
			Google: deps.Google != nil,
		}))
	}
	if err != nil {
		return err
	}

	if err := deps.SessionManager.RenewToken(r.Context()); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}

	if user.TotpEnabled {
		logging.AddToEvent(r.Context(), slog.String("outcome", "2fa_required"), slog.Int64("user_id", user.ID))
		deps.SessionManager.Put(r.Context(), sessionPending2FA, user.ID)
		http.Redirect(w, r, routes.LoginTwoFactor, http.StatusSeeOther)
		return nil
	}

	return signIn(deps, w, r, user)
}

func handleTwoFactorPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if deps.SessionManager.GetInt64(r.Context(), sessionPending2FA) == 0 {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}
	return render(w, r, "login_2fa", pages.LoginTwoFactor(""))
}

func handleTwoFactor(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	userID := deps.SessionManager.GetInt64(r.Context(), sessionPending2FA)
	if userID == 0 {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}

	logging.AddToEvent(r.Context(), slog.String("operation", "login_2fa"), slog.Int64("user_id", userID))

	user, err := deps.Auth.VerifyTOTP(r.Context(), userID, r.FormValue("code"))
	if errors.Is(err, services.ErrInvalidCode) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "invalid_code"))
		return render(w, r, "login_2fa", pages.LoginTwoFactor("Invalid code, try again"))
	}
	if errors.Is(err, services.ErrTOTPNotEnabled) {
		deps.SessionManager.Remove(r.Context(), sessionPending2FA)
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}
	if err != nil {
		return err
	}

	deps.SessionManager.Remove(r.Context(), sessionPending2FA)
	if err := deps.SessionManager.RenewToken(r.Context()); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}
	return signIn(deps, w, r, user)
}

// signIn grava o usuário na sessão. Quem ainda não escolheu idiomas cai no
// onboarding.
func signIn(deps HandlerDeps, w http.ResponseWriter, r *http.Request, user db.User) error {
	deps.SessionManager.Put(r.Context(), middleware.SessionUserID, user.ID)

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("user_id", user.ID),
		slog.String("user_role", user.Role),
	)

	langs, err := deps.Queries.ListUserLanguages(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}
	if len(langs) == 0 {
		http.Redirect(w, r, routes.Languages+"?onboarding=1", http.StatusSeeOther)
		return nil
	}
	http.Redirect(w, r, routes.MyShifts, http.StatusSeeOther)
	return nil
}

func handleLogout(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if err := deps.SessionManager.Destroy(r.Context()); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	http.Redirect(w, r, routes.Login, http.StatusSeeOther)
	return nil
}

func handleRegisterPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return render(w, r, "register", pages.Register(pages.RegisterData{}))
}

func handleRegister(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	logging.AddToEvent(r.Context(),
		slog.String("operation", "register"),
		slog.String("email_domain", emailDomain(email)),
	)

	user, err := deps.Auth.Register(r.Context(), email, password)
	var fe validator.FieldErrors
	switch {
	case errors.As(err, &fe):
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "validation_failed"))
		return render(w, r, "register", pages.Register(pages.RegisterData{Email: email, Errors: fe}))
	case errors.Is(err, services.ErrEmailTaken):
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "email_already_exists"))
		return render(w, r, "register", pages.Register(pages.RegisterData{Email: email, Error: "This email is already registered"}))
	case err != nil:
		return err
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("created_user_id", user.ID),
	)
	redirectWithFlash(deps, w, r, routes.Login, "Account created! Check your email to verify it.")
	return nil
}

func handleVerifyEmail(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "verify_email"))

	err := deps.Auth.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if errors.Is(err, services.ErrInvalidToken) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "invalid_token"))
		redirectWithFlash(deps, w, r, routes.Login, "This verification link is invalid or has expired.")
		return nil
	}
	if err != nil {
		return err
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithFlash(deps, w, r, routes.Login, "Email verified. You can sign in now.")
	return nil
}

func handleForgotPasswordPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return render(w, r, "forgot_password", pages.ForgotPassword(pages.ForgotPasswordData{}))
}

func handleForgotPassword(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	email := strings.TrimSpace(r.FormValue("email"))
	logging.AddToEvent(r.Context(),
		slog.String("operation", "forgot_password"),
		slog.String("email_domain", emailDomain(email)),
	)

	err := deps.Auth.ForgotPassword(r.Context(), email)
	var fe validator.FieldErrors
	if errors.As(err, &fe) {
		return render(w, r, "forgot_password", pages.ForgotPassword(pages.ForgotPasswordData{Email: email, Errors: fe}))
	}
	if err != nil {
		return err
	}

	// mesma resposta exista ou não a conta
	return render(w, r, "forgot_password", pages.ForgotPassword(pages.ForgotPasswordData{Sent: true}))
}

func handleResetPasswordPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return render(w, r, "reset_password", pages.ResetPassword(pages.ResetPasswordData{Token: r.URL.Query().Get("token")}))
}

func handleResetPassword(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	token := r.FormValue("token")
	logging.AddToEvent(r.Context(), slog.String("operation", "reset_password"))

	err := deps.Auth.ResetPassword(r.Context(), token, r.FormValue("password"))
	var fe validator.FieldErrors
	switch {
	case errors.As(err, &fe):
		return render(w, r, "reset_password", pages.ResetPassword(pages.ResetPasswordData{Token: token, Errors: fe}))
	case errors.Is(err, services.ErrInvalidToken):
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "invalid_token"))
		return render(w, r, "reset_password", pages.ResetPassword(pages.ResetPasswordData{Token: token, Error: "This reset link is invalid or has expired"}))
	case err != nil:
		return err
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithFlash(deps, w, r, routes.Login, "Password changed. Sign in with your new password.")
	return nil
}

func emailDomain(email string) string {
	if idx := strings.LastIndex(email, "@"); idx > 0 {
		return email[idx+1:]
	}
	return ""
}
