package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"sync"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/a-h/templ"
)

var ErrSimulatedFailure = errors.New("simulated failure")

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Email struct {
	To      string
	Subject string
	Body    string
}

// New monta a cadeia de provedores: Resend quando há API key, SMTP sempre
// como fallback.
func New(cfg *config.Config) *Failover {
	var providers []Provider
	if cfg.ResendAPIKey != "" {
		providers = append(providers, NewResend(cfg.ResendAPIKey, fromHeader(cfg.SMTPFrom), nil))
	}
	providers = append(providers, NewSMTPProvider(cfg))
	return NewFailover(providers...)
}

func fromHeader(addr string) string {
	return (&mail.Address{Name: "HC Portal", Address: addr}).String()
}

// SendComponent renderiza c e envia o HTML resultante.
func SendComponent(ctx context.Context, s Sender, to, subject string, c templ.Component) error {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	return s.Send(ctx, to, subject, buf.String())
}

type SMTPProvider struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPProvider(cfg *config.Config) *SMTPProvider {
	addr := fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort)
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	return &SMTPProvider{
		addr: addr,
		auth: auth,
		from: cfg.SMTPFrom,
	}
}

// smtpError traduz as respostas do servidor: 5xx é recusa definitiva, o resto
// (4xx, rede) pode passar no próximo provedor ou na próxima tentativa.
func smtpError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code >= 500 {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *SMTPProvider) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	header := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		fromHeader(s.from), to, mime.QEncoding.Encode("utf-8", subject))
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(header+body)); err != nil {
		return smtpError(err)
	}
	return nil
}

func (s *SMTPProvider) Name() string  { return ProviderSMTP }
func (s *SMTPProvider) Enabled() bool { return true }

type MockMailer struct {
	mu        sync.Mutex
	emails    []Email
	ShouldErr bool
}

func NewMock() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ShouldErr {
		return ErrSimulatedFailure
	}

	m.emails = append(m.emails, Email{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	return nil
}

func (m *MockMailer) GetEmailCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.emails)
}

func (m *MockMailer) GetLastEmail() *Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.emails) == 0 {
		return nil
	}
	return &m.emails[len(m.emails)-1]
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = nil
	m.ShouldErr = false
}
