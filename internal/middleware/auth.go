package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/contextkeys"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/alexedwards/scs/v2"
	"github.com/casbin/casbin/v2"
)

const (
	SessionUserID = "user_id"
	SessionFlash  = "flash"
)

// UserLoader é satisfeito pelo cache de usuários dos services.
type UserLoader interface {
	Get(ctx context.Context, id int64) (db.User, error)
}

func RequireAuth(sm *scs.SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionUserID)
			if userID == 0 {
				redirectLogin(w, r)
				return
			}

			user, err := users.Get(r.Context(), userID)
			if err != nil {
				_ = sm.Destroy(r.Context())
				redirectLogin(w, r)
				return
			}

			logging.AddToEvent(r.Context(), slog.Int64("user_id", user.ID))
			ctx := context.WithValue(r.Context(), contextkeys.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize consulta o casbin com o papel do usuário autenticado. Deve vir
// depois de RequireAuth.
func Authorize(enforcer *casbin.Enforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				redirectLogin(w, r)
				return
			}

			allowed, err := enforcer.Enforce(user.Role, r.URL.Path, r.Method)
			if err != nil {
				logging.Get().Error("authorization check failed", slog.String("error", err.Error()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if !allowed {
				logging.AddToEvent(r.Context(), slog.String("outcome", "forbidden"))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func redirectLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", routes.Login)
		w.WriteHeader(http.StatusUnauthorized)
	} else {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
	}
}

// GetUser recupera o usuário do contexto de forma segura
func GetUser(ctx context.Context) (db.User, bool) {
	user, ok := ctx.Value(contextkeys.UserContextKey).(db.User)
	return user, ok
}

// Flash move a mensagem da sessão para o contexto em navegações completas;
// requisições HTMX não consomem a mensagem.
func Flash(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.Header.Get("HX-Request") != "" {
				next.ServeHTTP(w, r)
				return
			}
			if msg := sm.PopString(r.Context(), SessionFlash); msg != "" {
				r = r.WithContext(context.WithValue(r.Context(), contextkeys.FlashKey, msg))
			}
			next.ServeHTTP(w, r)
		})
	}
}
