// Package contextkeys guarda as chaves de contexto compartilhadas entre
// middleware, handlers e views.
package contextkeys

type contextKey string

const (
	UserContextKey contextKey = "user"       // db.User da sessão
	LocaleKey      contextKey = "locale"     // código do idioma ativo, ex. "pt"
	CSRFTokenKey   contextKey = "csrf_token" // token nosurf do request
	FlashKey       contextKey = "flash"      // mensagem consumida da sessão
)
