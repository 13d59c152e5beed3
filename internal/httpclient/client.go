// Package httpclient monta os clientes das chamadas de saída (Resend, Google).
// Cada chamada vira um span filho do request e uma linha de log.
package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/PauloHFS/hcportal/internal/logging"
)

type Client struct {
	*http.Client
	name string
}

type Config struct {
	Name      string
	Timeout   time.Duration
	Transport http.RoundTripper
}

type Option func(*Client)

// RoundTripperFunc adapta uma função a http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func New(cfg Config, opts ...Option) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := &Client{
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(logged(cfg.Name, base)),
		},
		name: cfg.Name,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Default() *Client {
	return New(Config{Name: "default", Timeout: 30 * time.Second})
}

func (c *Client) Name() string {
	return c.name
}

// WithAuth aplica auth numa cópia do request; o original do chamador fica intacto.
func WithAuth(auth func(*http.Request)) Option {
	return func(c *Client) {
		next := c.Transport
		c.Transport = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			auth(r)
			return next.RoundTrip(r)
		})
	}
}

func logged(name string, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		attrs := []slog.Attr{
			slog.String("http_client", name),
			slog.String("method", r.Method),
			slog.String("host", r.URL.Host),
			slog.String("path", r.URL.Path),
		}

		resp, err := next.RoundTrip(r)
		attrs = append(attrs, slog.Int64("duration_ms", time.Since(start).Milliseconds()))

		logger := logging.Get()
		switch {
		case err != nil:
			logger.LogAttrs(r.Context(), slog.LevelError, "http request failed", append(attrs, slog.String("error", err.Error()))...)
		case resp.StatusCode >= 400:
			logger.LogAttrs(r.Context(), slog.LevelWarn, "http request completed", append(attrs, slog.Int("status", resp.StatusCode))...)
		default:
			logger.LogAttrs(r.Context(), slog.LevelInfo, "http request completed", append(attrs, slog.Int("status", resp.StatusCode))...)
		}
		return resp, err
	})
}
