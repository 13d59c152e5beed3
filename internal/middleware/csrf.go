package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/contextkeys"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/justinas/nosurf"
)

// CSRF configura o nosurf. Webhooks são chamadas servidor a servidor e ficam
// de fora.
func CSRF(isProd bool, exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := nosurf.New(next)
		h.SetBaseCookie(http.Cookie{
			Path:     "/",
			HttpOnly: true,
			Secure:   isProd,
			SameSite: http.SameSiteLaxMode,
		})
		h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logging.AddToEvent(r.Context(),
				slog.String("outcome", "csrf_rejected"),
				slog.String("error_reason", nosurf.Reason(r).Error()),
			)
			http.Error(w, "Forbidden - CSRF token invalid", http.StatusForbidden)
		}))
		h.ExemptGlobs(exempt...)
		return h
	}
}

func InjectCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := nosurf.Token(r)
		ctx := context.WithValue(r.Context(), contextkeys.CSRFTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
