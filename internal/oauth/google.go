// Package oauth implements the Google sign-in flow.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/PauloHFS/hcportal/internal/httpclient"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var ErrStateMismatch = errors.New("oauth state mismatch")

type Google struct {
	config      *oauth2.Config
	client      *httpclient.Client
	userInfoURL string
}

// NewGoogle devolve nil quando as credenciais não estão configuradas.
func NewGoogle(cfg *config.Config) *Google {
	if !cfg.GoogleEnabled() {
		return nil
	}
	return &Google{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + routes.GoogleCallback,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		client:      httpclient.Default(),
		userInfoURL: userInfoURL,
	}
}

// NewState gera o valor aleatório guardado na sessão antes do redirect.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// Exchange confere o state, troca o code pelo token e busca o perfil.
func (g *Google) Exchange(ctx context.Context, wantState, gotState, code string) (services.ExternalIdentity, error) {
	if wantState == "" || wantState != gotState {
		return services.ExternalIdentity{}, ErrStateMismatch
	}

	// o token endpoint também passa pelo client com log
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client.Client)
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return services.ExternalIdentity{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return services.ExternalIdentity{}, err
	}
	token.SetAuthHeader(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return services.ExternalIdentity{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.ExternalIdentity{}, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return services.ExternalIdentity{}, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.Sub == "" {
		return services.ExternalIdentity{}, errors.New("user info without subject")
	}

	return services.ExternalIdentity{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
	}, nil
}
