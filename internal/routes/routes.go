package routes

import "fmt"

const (
	Home           = "/"
	Login          = "/login"
	LoginTwoFactor = "/login/2fa"
	Logout         = "/logout"
	Register       = "/register"
	ForgotPassword = "/forgot-password"
	ResetPassword  = "/reset-password"
	VerifyEmail    = "/verify-email"
	GoogleLogin    = "/auth/google"
	GoogleCallback = "/auth/google/callback"

	Languages   = "/languages"
	MyShifts    = "/my-shifts"
	BankAccount = "/profile/bank-account"
	Profile     = "/profile"
	Settings    = "/profile/settings"
	Software    = "/software"

	ProfileAvatar     = "/profile/avatar"
	BankAccountDelete = "/profile/bank-account/delete"
	SettingsPassword  = "/profile/settings/password"
	SettingsTOTP      = "/profile/settings/2fa"
	SettingsTOTPOn    = "/profile/settings/2fa/confirm"
	SettingsTOTPOff   = "/profile/settings/2fa/disable"
	SettingsDelete    = "/profile/settings/delete"

	Admin   = "/admin"
	Events  = "/events"
	Health  = "/health"
	Metrics = "/metrics"
	Swagger = "/swagger/"
)

// ShiftAction monta a rota de uma transição de turno (accept, decline, cancel).
func ShiftAction(id int64, action string) string {
	return fmt.Sprintf("%s/%d/%s", MyShifts, id, action)
}

// WebhookRoute generates the path for a webhook source
func WebhookRoute(source string) string {
	return fmt.Sprintf("/webhooks/%s", source)
}

func DeadLetterReprocess(id int64) string {
	return fmt.Sprintf("%s/dead-letters/%d/reprocess", Admin, id)
}
