package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockMailer_Send(t *testing.T) {
	mock := NewMock()

	err := mock.Send(context.Background(), "to@example.com", "Test Subject", "<p>Test Body</p>")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if mock.GetEmailCount() != 1 {
		t.Errorf("expected 1 email, got %d", mock.GetEmailCount())
	}

	lastEmail := mock.GetLastEmail()
	if lastEmail.To != "to@example.com" {
		t.Errorf("expected to 'to@example.com', got %s", lastEmail.To)
	}
	if lastEmail.Subject != "Test Subject" {
		t.Errorf("expected subject 'Test Subject', got %s", lastEmail.Subject)
	}
}

func TestMockMailer_SimulateErrorAndReset(t *testing.T) {
	mock := NewMock()
	mock.ShouldErr = true

	if err := mock.Send(context.Background(), "to@example.com", "Subject", "Body"); err != ErrSimulatedFailure {
		t.Errorf("expected ErrSimulatedFailure, got %v", err)
	}

	mock.Reset()
	if mock.GetLastEmail() != nil {
		t.Error("expected nil after reset")
	}
}

func TestSendComponent(t *testing.T) {
	mock := NewMock()
	c := templ.Raw("<p>Olá</p>")

	require.NoError(t, SendComponent(context.Background(), mock, "a@example.com", "Hi", c))
	assert.Equal(t, "<p>Olá</p>", mock.GetLastEmail().Body)
}

type fakeProvider struct {
	name    string
	enabled bool
	err     error
	sent    int
}

func (f *fakeProvider) Send(context.Context, string, string, string) error {
	f.sent++
	return f.err
}
func (f *fakeProvider) Name() string  { return f.name }
func (f *fakeProvider) Enabled() bool { return f.enabled }

func TestFailover(t *testing.T) {
	resend := func(err error) *fakeProvider { return &fakeProvider{name: ProviderResend, enabled: true, err: err} }
	smtp := func() *fakeProvider { return &fakeProvider{name: ProviderSMTP, enabled: true} }

	tests := []struct {
		name      string
		first     *fakeProvider
		second    *fakeProvider
		wantErr   error
		wantFirst int
		wantSec   int
	}{
		{"first succeeds", resend(nil), smtp(), nil, 1, 0},
		{"rate limited falls through", resend(ErrRateLimited), smtp(), nil, 1, 1},
		{"unavailable falls through", resend(fmt.Errorf("%w: status 502", ErrUnavailable)), smtp(), nil, 1, 1},
		{"rejected stops", resend(fmt.Errorf("%w: invalid to", ErrRejected)), smtp(), ErrRejected, 1, 0},
		{"disabled skipped", &fakeProvider{name: ProviderResend}, smtp(), nil, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFailover(tt.first, tt.second)
			err := f.Send(context.Background(), "a@example.com", "s", "b")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantFirst, tt.first.sent)
			assert.Equal(t, tt.wantSec, tt.second.sent)
		})
	}

	assert.ErrorIs(t, NewFailover(&fakeProvider{}).Send(context.Background(), "a", "b", "c"), ErrNoProvider)
}

func TestFailoverSticksToWorkingProvider(t *testing.T) {
	first := &fakeProvider{name: ProviderResend, enabled: true, err: ErrRateLimited}
	second := &fakeProvider{name: ProviderSMTP, enabled: true}
	f := NewFailover(first, second)

	require.NoError(t, f.Send(context.Background(), "a@example.com", "s", "b"))
	require.NoError(t, f.Send(context.Background(), "a@example.com", "s", "b"))
	assert.Equal(t, 1, first.sent)
	assert.Equal(t, 2, second.sent)
}

func TestFailoverAllExhausted(t *testing.T) {
	f := NewFailover(
		&fakeProvider{name: ProviderResend, enabled: true, err: ErrRateLimited},
		&fakeProvider{name: ProviderSMTP, enabled: true, err: fmt.Errorf("%w: dial tcp", ErrUnavailable)},
	)
	err := f.Send(context.Background(), "a@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestResend(t *testing.T) {
	var got resendEmail
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		switch got.To[0] {
		case "limited@example.com":
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		case "broken@example.com":
			w.WriteHeader(http.StatusBadGateway)
		case "invalid":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"name":"validation_error","message":"Invalid to field"}`))
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	p := NewResend("re_key", fromHeader("noreply@hcportal.test"), nil)
	p.baseURL = srv.URL

	require.NoError(t, p.Send(context.Background(), "a@example.com", "Subject", "<p>x</p>"))
	assert.Equal(t, "Bearer re_key", auth)
	assert.Equal(t, `"HC Portal" <noreply@hcportal.test>`, got.From)
	assert.Equal(t, "<p>x</p>", got.HTML)

	err := p.Send(context.Background(), "limited@example.com", "s", "b")
	assert.ErrorIs(t, err, ErrRateLimited)
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 30*time.Second, rl.RetryAfter)

	assert.ErrorIs(t, p.Send(context.Background(), "broken@example.com", "s", "b"), ErrUnavailable)

	err = p.Send(context.Background(), "invalid", "s", "b")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Invalid to field")
}

func TestSMTPErrorClassification(t *testing.T) {
	assert.ErrorIs(t, smtpError(&textproto.Error{Code: 550, Msg: "mailbox unavailable"}), ErrRejected)
	assert.ErrorIs(t, smtpError(&textproto.Error{Code: 421, Msg: "try again later"}), ErrUnavailable)
	assert.ErrorIs(t, smtpError(errors.New("dial tcp: connection refused")), ErrUnavailable)
}

func TestNewBuildsProviderChain(t *testing.T) {
	f := New(&config.Config{SMTPHost: "localhost", SMTPPort: "1025", ResendAPIKey: "k"})
	require.Len(t, f.providers, 2)
	assert.Equal(t, ProviderResend, f.providers[0].Name())
	assert.Equal(t, ProviderSMTP, f.providers[1].Name())

	f = New(&config.Config{SMTPHost: "localhost", SMTPPort: "1025"})
	assert.Len(t, f.providers, 1)
}
