package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/middleware"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/PauloHFS/hcportal/internal/view/pages"
)

func handleSettings(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return renderSettings(deps, w, r, pages.SettingsData{})
}

// renderSettings completa data com o usuário e com a ativação de 2FA pendente,
// se houver.
func renderSettings(deps HandlerDeps, w http.ResponseWriter, r *http.Request, data pages.SettingsData) error {
	if data.User.ID == 0 {
		data.User = currentUser(r)
	}
	if data.TOTP == nil && !data.User.TotpEnabled {
		if secret := deps.SessionManager.GetString(r.Context(), sessionTOTPSecret); secret != "" {
			data.TOTP = &services.TOTPSetup{
				Secret: secret,
				URL:    deps.SessionManager.GetString(r.Context(), sessionTOTPURL),
			}
		}
	}
	return render(w, r, "settings", pages.SettingsForm(data))
}

func handleUpdatePreferences(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "update_preferences"))

	in := services.PreferencesInput{
		Locale:             r.FormValue("locale"),
		EmailNotifications: r.FormValue("email_notifications") == "true",
		ShiftReminders:     r.FormValue("shift_reminders") == "true",
	}

	err := deps.Settings.UpdatePreferences(r.Context(), user.ID, in)
	var fe validator.FieldErrors
	if errors.As(err, &fe) {
		return renderSettings(deps, w, r, pages.SettingsData{Errors: fe})
	}
	if err != nil {
		return err
	}

	middleware.SetLocaleCookie(w, in.Locale, deps.Config.IsProd())
	logging.AddToEvent(r.Context(), slog.String("outcome", "success"), slog.String("locale", in.Locale))
	redirectWithFlash(deps, w, r, routes.Settings, "Preferences saved.")
	return nil
}

func handleChangePassword(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "change_password"))

	err := deps.Settings.ChangePassword(r.Context(), user, r.FormValue("current_password"), r.FormValue("new_password"))
	var fe validator.FieldErrors
	switch {
	case errors.Is(err, services.ErrWrongPassword):
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "wrong_password"))
		return renderSettings(deps, w, r, pages.SettingsData{Errors: map[string]string{"current_password": err.Error()}})
	case errors.As(err, &fe):
		return renderSettings(deps, w, r, pages.SettingsData{Errors: fe})
	case err != nil:
		return err
	}

	if err := deps.SessionManager.RenewToken(r.Context()); err != nil {
		return fmt.Errorf("failed to renew session token: %w", err)
	}
	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithFlash(deps, w, r, routes.Settings, "Password changed.")
	return nil
}

func handleStartTOTP(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "totp_start"))

	if user.TotpEnabled {
		http.Redirect(w, r, routes.Settings, http.StatusSeeOther)
		return nil
	}

	setup, err := deps.Settings.StartTOTP(user)
	if err != nil {
		return err
	}
	deps.SessionManager.Put(r.Context(), sessionTOTPSecret, setup.Secret)
	deps.SessionManager.Put(r.Context(), sessionTOTPURL, setup.URL)

	return renderSettings(deps, w, r, pages.SettingsData{TOTP: &setup})
}

func handleConfirmTOTP(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "totp_confirm"))

	secret := deps.SessionManager.GetString(r.Context(), sessionTOTPSecret)
	err := deps.Settings.ConfirmTOTP(r.Context(), user.ID, secret, r.FormValue("code"))
	if errors.Is(err, services.ErrInvalidCode) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "invalid_code"))
		return renderSettings(deps, w, r, pages.SettingsData{Errors: map[string]string{"code": err.Error()}})
	}
	if err != nil {
		return err
	}

	deps.SessionManager.Remove(r.Context(), sessionTOTPSecret)
	deps.SessionManager.Remove(r.Context(), sessionTOTPURL)
	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithFlash(deps, w, r, routes.Settings, "Two-factor authentication is on.")
	return nil
}

func handleDisableTOTP(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "totp_disable"))

	err := deps.Settings.DisableTOTP(r.Context(), user, r.FormValue("code"))
	switch {
	case errors.Is(err, services.ErrInvalidCode):
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "invalid_code"))
		return renderSettings(deps, w, r, pages.SettingsData{Errors: map[string]string{"code": err.Error()}})
	case errors.Is(err, services.ErrTOTPNotEnabled):
		http.Redirect(w, r, routes.Settings, http.StatusSeeOther)
		return nil
	case err != nil:
		return err
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithFlash(deps, w, r, routes.Settings, "Two-factor authentication is off.")
	return nil
}

func handleDeleteAccount(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "delete_account"))

	err := deps.Settings.DeleteAccount(r.Context(), user, r.FormValue("password"))
	if errors.Is(err, services.ErrWrongPassword) || errors.Is(err, services.ErrInvalidCode) || errors.Is(err, services.ErrEmailMismatch) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "confirmation_failed"))
		return renderSettings(deps, w, r, pages.SettingsData{Errors: map[string]string{"password": err.Error()}})
	}
	if err != nil {
		return err
	}

	if err := deps.SessionManager.Destroy(r.Context()); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	// Destroy limpa a sessão; o flash vai para a sessão nova
	logging.AddToEvent(r.Context(), slog.String("outcome", "success"), slog.Int64("deleted_user_id", user.ID))
	redirectWithFlash(deps, w, r, routes.Login, "Your account has been deleted.")
	return nil
}
