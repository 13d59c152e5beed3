package web

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/middleware"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/storage"
	"github.com/PauloHFS/hcportal/internal/webhook"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func RegisterRoutes(mux *http.ServeMux, deps HandlerDeps) {
	protect := func(h AppHandler) http.Handler {
		return middleware.RequireAuth(deps.SessionManager, deps.Users)(
			middleware.Authorize(deps.Enforcer)(Handle(deps, h)),
		)
	}

	mux.HandleFunc("GET /{$}", Handle(deps, handleHome))

	// Auth
	mux.HandleFunc("GET "+routes.Login, Handle(deps, handleLoginPage))
	mux.HandleFunc("POST "+routes.Login, Handle(deps, handleLogin))
	mux.HandleFunc("GET "+routes.LoginTwoFactor, Handle(deps, handleTwoFactorPage))
	mux.HandleFunc("POST "+routes.LoginTwoFactor, Handle(deps, handleTwoFactor))
	mux.HandleFunc("POST "+routes.Logout, Handle(deps, handleLogout))
	mux.HandleFunc("GET "+routes.Register, Handle(deps, handleRegisterPage))
	mux.HandleFunc("POST "+routes.Register, Handle(deps, handleRegister))
	mux.HandleFunc("GET "+routes.VerifyEmail, Handle(deps, handleVerifyEmail))
	mux.HandleFunc("GET "+routes.ForgotPassword, Handle(deps, handleForgotPasswordPage))
	mux.HandleFunc("POST "+routes.ForgotPassword, Handle(deps, handleForgotPassword))
	mux.HandleFunc("GET "+routes.ResetPassword, Handle(deps, handleResetPasswordPage))
	mux.HandleFunc("POST "+routes.ResetPassword, Handle(deps, handleResetPassword))
	mux.HandleFunc("GET "+routes.GoogleLogin, Handle(deps, handleGoogleLogin))
	mux.HandleFunc("GET "+routes.GoogleCallback, Handle(deps, handleGoogleCallback))

	// Portal
	mux.Handle("GET "+routes.Languages, protect(handleLanguages))
	mux.Handle("POST "+routes.Languages, protect(handleSaveLanguages))
	mux.Handle("GET "+routes.Software, protect(handleSoftware))
	mux.Handle("POST "+routes.Software, protect(handleSaveSoftware))

	mux.Handle("GET "+routes.MyShifts, protect(handleMyShifts))
	mux.Handle("POST "+routes.MyShifts+"/{id}/{action}", protect(handleShiftAction))

	mux.Handle("GET "+routes.Profile, protect(handleProfile))
	mux.Handle("POST "+routes.Profile, protect(handleUpdateProfile))
	mux.Handle("POST "+routes.ProfileAvatar, protect(handleAvatarUpload))

	mux.Handle("GET "+routes.BankAccount, protect(handleBankAccount))
	mux.Handle("POST "+routes.BankAccount, protect(handleSaveBankAccount))
	mux.Handle("POST "+routes.BankAccountDelete, protect(handleDeleteBankAccount))

	mux.Handle("GET "+routes.Settings, protect(handleSettings))
	mux.Handle("POST "+routes.Settings, protect(handleUpdatePreferences))
	mux.Handle("POST "+routes.SettingsPassword, protect(handleChangePassword))
	mux.Handle("POST "+routes.SettingsTOTP, protect(handleStartTOTP))
	mux.Handle("POST "+routes.SettingsTOTPOn, protect(handleConfirmTOTP))
	mux.Handle("POST "+routes.SettingsTOTPOff, protect(handleDisableTOTP))
	mux.Handle("POST "+routes.SettingsDelete, protect(handleDeleteAccount))

	mux.Handle("GET "+routes.Events, middleware.RequireAuth(deps.SessionManager, deps.Users)(
		middleware.Authorize(deps.Enforcer)(deps.Broker.Handler(sessionUserID)),
	))

	// Admin
	mux.Handle("GET "+routes.Admin, protect(handleAdmin))
	mux.Handle("POST "+routes.Admin+"/dead-letters/{id}/reprocess", protect(handleReprocessDeadLetter))
}

// NewRouter monta o mux completo com a cadeia de middlewares na ordem em que
// o servidor a usa.
func NewRouter(deps HandlerDeps, assets fs.FS) (http.Handler, error) {
	isProd := deps.Config.IsProd()

	mux := http.NewServeMux()
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(assets)))
	if local, ok := deps.Store.(*storage.LocalStore); ok {
		mux.Handle("GET /storage/", http.StripPrefix("/storage/", http.FileServer(http.Dir(local.Root()))))
	}
	mux.Handle("GET "+routes.Metrics, promhttp.Handler())
	mux.Handle("GET "+routes.Swagger, httpSwagger.WrapHandler)
	mux.HandleFunc("GET "+routes.Health, Handle(deps, handleHealth))
	mux.Handle("POST /webhooks/{source}", webhook.NewHandler(deps.DB, deps.Queries))

	RegisterRoutes(mux, deps)

	handler := middleware.Recovery(
		deps.RateLimiter.Middleware(
			middleware.SecurityHeaders(isProd)(
				middleware.Logger(
					middleware.Locale(
						deps.SessionManager.LoadAndSave(
							middleware.CSRF(isProd, "/webhooks/*")(
								middleware.InjectCSRF(
									middleware.Flash(deps.SessionManager)(mux),
								),
							),
						),
					),
				),
			),
		),
	)

	traced := otelhttp.NewHandler(handler, "hcportal",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != routes.Metrics && r.URL.Path != routes.Health
		}),
	)

	// SSE não pode passar pelo buffer do gzip
	gz, err := gzhttp.NewWrapper(gzhttp.ExceptContentTypes([]string{"text/event-stream"}))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip wrapper: %w", err)
	}
	return gz(traced), nil
}
