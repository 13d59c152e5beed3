// Package logging configura o slog do portal. Cada request (ou job) acumula
// atributos num Event e sai como uma única linha "wide" no fim.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

type eventKey struct{}

// Campos que nunca vão para o log, mesmo que alguém os adicione por engano.
var redactedKeys = map[string]bool{
	"password":    true,
	"iban":        true,
	"token":       true,
	"totp_secret": true,
	"totp_code":   true,
}

const redacted = "[REDACTED]"

type Event struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

func (e *Event) Add(attrs ...slog.Attr) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs = append(e.attrs, attrs...)
}

// Attrs devolve uma cópia no formato aceito por slog.Logger.Log.
func (e *Event) Attrs() []any {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	args := make([]any, len(e.attrs))
	for i, attr := range e.attrs {
		args[i] = attr
	}
	return args
}

// New monta o logger JSON com redação de segredos e trace_id/span_id do span
// ativo.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if redactedKeys[a.Key] {
				return slog.String(a.Key, redacted)
			}
			return a
		},
	})

	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}

	return slog.New(traceHandler{handler}).With(
		slog.String("version", version),
		slog.String("service", "hcportal"),
	)
}

// Init lê LOG_LEVEL (debug, info, warn, error) e instala o logger como default.
func Init() {
	l := New(os.Stdout, parseLevel(os.Getenv("LOG_LEVEL")))

	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

func Get() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init()
		return Get()
	}
	return l
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

func NewEventContext(ctx context.Context) (context.Context, *Event) {
	e := &Event{}
	return context.WithValue(ctx, eventKey{}, e), e
}

func EventFromContext(ctx context.Context) *Event {
	e, _ := ctx.Value(eventKey{}).(*Event)
	return e
}

// AddToEvent é no-op fora de um request ou job.
func AddToEvent(ctx context.Context, attrs ...slog.Attr) {
	EventFromContext(ctx).Add(attrs...)
}
