package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/PauloHFS/hcportal/internal/contextkeys"
	"github.com/PauloHFS/hcportal/internal/i18n"
)

const LocaleCookie = "lang"

func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Verificar Cookie (preferência manual)
		locale := i18n.English
		cookie, err := r.Cookie(LocaleCookie)
		if err == nil && i18n.IsSupported(cookie.Value) {
			locale = cookie.Value
		} else {
			// 2. Verificar Header Accept-Language
			accept := r.Header.Get("Accept-Language")
			if strings.HasPrefix(accept, "pt") {
				locale = i18n.Portuguese
			}
		}

		ctx := context.WithValue(r.Context(), contextkeys.LocaleKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetLocaleCookie grava a preferência de idioma escolhida nas configurações.
func SetLocaleCookie(w http.ResponseWriter, locale string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     LocaleCookie,
		Value:    locale,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
