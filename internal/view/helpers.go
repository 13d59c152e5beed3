package view

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.1001 generate

import (
	"context"
	"encoding/json"

	"github.com/PauloHFS/hcportal/internal/contextkeys"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/i18n"
	"github.com/PauloHFS/hcportal/internal/routes"
)

// CSRFToken retorna o token do contexto
func CSRFToken(ctx context.Context) string {
	if token, ok := ctx.Value(contextkeys.CSRFTokenKey).(string); ok {
		return token
	}
	return ""
}

// CurrentUser returns the signed-in user placed in the context by RequireAuth.
func CurrentUser(ctx context.Context) (db.User, bool) {
	user, ok := ctx.Value(contextkeys.UserContextKey).(db.User)
	return user, ok
}

func Flash(ctx context.Context) string {
	if msg, ok := ctx.Value(contextkeys.FlashKey).(string); ok {
		return msg
	}
	return ""
}

// csrfHeaders é o JSON do hx-headers, para o htmx mandar o token em toda requisição.
func csrfHeaders(token string) string {
	b, _ := json.Marshal(map[string]string{"X-CSRF-Token": token})
	return string(b)
}

func navLabel(t i18n.Translation, path string) string {
	switch path {
	case routes.Languages:
		return t.Languages
	case routes.MyShifts:
		return t.MyShifts
	case routes.BankAccount:
		return t.BankAccount
	case routes.Profile:
		return t.Profile
	case routes.Settings:
		return t.Settings
	case routes.Software:
		return t.Software
	}
	return path
}
