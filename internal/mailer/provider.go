package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/PauloHFS/hcportal/internal/httpclient"
)

var (
	// ErrRateLimited e ErrUnavailable fazem o Failover tentar o próximo provedor.
	ErrRateLimited = errors.New("mail provider rate limited")
	ErrUnavailable = errors.New("mail provider unavailable")
	// ErrRejected: o provedor recusou a mensagem. Reenviar não adianta.
	ErrRejected = errors.New("mail rejected")

	ErrNoProvider = errors.New("no mail provider enabled")
)

// RateLimitError carrega o Retry-After do provedor, quando ele informa.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter)
	}
	return ErrRateLimited.Error()
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

func parseRetryAfter(h string) time.Duration {
	if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(h); err == nil {
		return max(time.Until(at), 0)
	}
	return 0
}

const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

type Provider interface {
	Sender
	Name() string
	Enabled() bool
}

// Failover envia pelo último provedor que funcionou e cai para os outros em
// rate limit ou indisponibilidade.
type Failover struct {
	mu        sync.Mutex
	providers []Provider
	preferred int
}

func NewFailover(providers ...Provider) *Failover {
	return &Failover{providers: providers}
}

func (f *Failover) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	start := f.preferred
	f.mu.Unlock()

	var errs []error
	for i := range f.providers {
		idx := (start + i) % len(f.providers)
		p := f.providers[idx]
		if !p.Enabled() {
			continue
		}

		err := p.Send(ctx, to, subject, body)
		if err == nil {
			f.mu.Lock()
			f.preferred = idx
			f.mu.Unlock()
			return nil
		}

		err = fmt.Errorf("%s: %w", p.Name(), err)
		if !errors.Is(err, ErrRateLimited) && !errors.Is(err, ErrUnavailable) {
			return err
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return ErrNoProvider
	}
	return errors.Join(errs...)
}

// Resend fala com a API HTTP do resend.com.
type Resend struct {
	apiKey  string
	from    string
	client  *httpclient.Client
	baseURL string
}

// NewResend aceita transport para testes; nil usa o padrão.
func NewResend(apiKey, from string, transport http.RoundTripper) *Resend {
	return &Resend{
		apiKey: apiKey,
		from:   from,
		client: httpclient.New(httpclient.Config{
			Name:      ProviderResend,
			Timeout:   15 * time.Second,
			Transport: transport,
		}, httpclient.WithAuth(func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+apiKey)
		})),
		baseURL: "https://api.resend.com",
	}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (r *Resend) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(resendEmail{
		From:    r.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var apiErr struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: %s (%s)", ErrRejected, apiErr.Message, apiErr.Name)
	}
	return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
}

func (r *Resend) Name() string  { return ProviderResend }
func (r *Resend) Enabled() bool { return r.apiKey != "" }
