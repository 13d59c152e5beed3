package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/metrics"
)

// statusRecorder guarda status e bytes escritos. Unwrap deixa o
// http.ResponseController chegar no Flush do writer original (SSE).
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.written {
		return
	}
	sr.status, sr.written = code, true
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// Rotas de infraestrutura só entram no log quando falham.
var quietPrefixes = []string{"/health", "/metrics", "/assets/"}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Logger abre o Event do request e escreve uma linha no fim, com tudo o que
// os handlers adicionaram pelo caminho.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("request.id", requestID))

		ctx, event := logging.NewEventContext(r.Context())
		event.Add(
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)
		if r.Header.Get("HX-Request") == "true" {
			event.Add(slog.Bool("htmx", true))
		}

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r.WithContext(ctx))
		elapsed := time.Since(start)

		path := metricPath(r.URL.Path)
		metrics.HttpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(sr.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(path, r.Method).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		switch {
		case sr.status >= 500:
			level = slog.LevelError
		case isQuiet(r.URL.Path):
			return
		}

		event.Add(
			slog.Int("status", sr.status),
			slog.Int("size", sr.bytes),
			slog.Float64("duration_ms", float64(elapsed.Microseconds())/1000),
		)
		logging.Get().Log(ctx, level, "request completed", event.Attrs()...)
	})
}

// metricPath troca segmentos numéricos por {id} e agrupa assets e arquivos
// do storage, para limitar a cardinalidade.
func metricPath(path string) string {
	for _, prefix := range []string{"/assets/", "/storage/"} {
		if strings.HasPrefix(path, prefix) {
			return prefix + "*"
		}
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
