package web

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PauloHFS/hcportal/internal/catalog"
	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/metrics"
	"github.com/PauloHFS/hcportal/internal/middleware"
	"github.com/PauloHFS/hcportal/internal/oauth"
	"github.com/PauloHFS/hcportal/internal/policies"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/sse"
	"github.com/PauloHFS/hcportal/internal/storage"
	"github.com/PauloHFS/hcportal/internal/vault"
	"github.com/PauloHFS/hcportal/internal/worker"
	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/casbin/casbin/v2"
)

// Chaves de sessão usadas só pela camada web.
const (
	sessionPending2FA = "pending_2fa_user_id"
	sessionTOTPSecret = "totp_secret"
	sessionTOTPURL    = "totp_url"
	sessionOAuthState = "oauth_state"
)

const (
	userCacheSize = 1000
	userCacheTTL  = 5 * time.Minute
)

type HandlerDeps struct {
	DB             *sql.DB
	Queries        *db.Queries
	SessionManager *scs.SessionManager
	// Reader atende as leituras do painel admin. Sem pool de leitura separado
	// é o mesmo que Queries.
	Reader *db.Queries
	Config *config.Config

	Users      *services.UserCache
	Auth       *services.AuthService
	Profiles   *services.ProfileService
	Bank       *services.BankService
	Settings   *services.SettingsService
	Selections *services.SelectionService
	Shifts     *services.ShiftService

	Catalog     *catalog.Catalog
	Store       storage.Store
	Google      *oauth.Google
	Broker      *sse.Broker
	Enforcer    *casbin.Enforcer
	Worker      *worker.Processor
	RateLimiter *middleware.RateLimiter
}

// NewDeps monta os services sobre a conexão e a configuração recebidas.
func NewDeps(cfg *config.Config, dbConn *sql.DB, sm *scs.SessionManager, cat *catalog.Catalog, store storage.Store, broker *sse.Broker, proc *worker.Processor) (HandlerDeps, error) {
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return HandlerDeps{}, err
	}
	v, err := vault.New(key)
	if err != nil {
		return HandlerDeps{}, fmt.Errorf("failed to create vault: %w", err)
	}
	enforcer, err := policies.NewEnforcer()
	if err != nil {
		return HandlerDeps{}, err
	}

	q := db.New(dbConn)
	users := services.NewUserCache(q, userCacheSize, userCacheTTL)

	return HandlerDeps{
		DB:             dbConn,
		Queries:        q,
		Reader:         q,
		SessionManager: sm,
		Config:         cfg,

		Users:      users,
		Auth:       services.NewAuthService(dbConn, q, users),
		Profiles:   services.NewProfileService(q, cat, users),
		Bank:       services.NewBankService(q, v),
		Settings:   services.NewSettingsService(q, users),
		Selections: services.NewSelectionService(dbConn, q, cat),
		Shifts:     services.NewShiftService(dbConn, q),

		Catalog:     cat,
		Store:       store,
		Google:      oauth.NewGoogle(cfg),
		Broker:      broker,
		Enforcer:    enforcer,
		Worker:      proc,
		RateLimiter: middleware.NewRateLimiter(10, 20),
	}, nil
}

// AppHandler é um tipo customizado que permite retornar erros dos handlers
type AppHandler func(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error

// Handle envolve nosso AppHandler para conformidade com http.HandlerFunc
func Handle(deps HandlerDeps, h AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(deps, w, r); err != nil {
			serverError(w, r, err)
		}
	}
}

func serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.AddToEvent(r.Context(),
		slog.String("outcome", "error"),
		slog.String("error", err.Error()),
	)
	logging.Get().ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// render escreve a página completa com status 200.
func render(w http.ResponseWriter, r *http.Request, name string, c templ.Component) error {
	return renderStatus(w, r, http.StatusOK, name, c)
}

// renderStatus deixa o templ.Handler bufferizar a página: status e corpo só
// saem depois de um render sem erro.
func renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, c templ.Component) error {
	metrics.PageRendersTotal.WithLabelValues(name).Inc()
	templ.Handler(c,
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				serverError(w, r, fmt.Errorf("failed to render %s: %w", name, err))
			})
		}),
	).ServeHTTP(w, r)
	return nil
}

// redirectWithFlash guarda msg para a próxima navegação completa e responde 303.
func redirectWithFlash(deps HandlerDeps, w http.ResponseWriter, r *http.Request, to, msg string) {
	if msg != "" {
		deps.SessionManager.Put(r.Context(), middleware.SessionFlash, msg)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func currentUser(r *http.Request) db.User {
	user, _ := middleware.GetUser(r.Context())
	return user
}
