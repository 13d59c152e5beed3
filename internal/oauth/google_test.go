package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewGoogleDisabledWithoutCredentials(t *testing.T) {
	assert.Nil(t, NewGoogle(&config.Config{}))
}

func TestAuthCodeURL(t *testing.T) {
	g := NewGoogle(&config.Config{BaseURL: "https://portal.test", GoogleClientID: "cid", GoogleClientSecret: "sec"})
	require.NotNil(t, g)

	u, err := url.Parse(g.AuthCodeURL("st"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "st", q.Get("state"))
	assert.Equal(t, "https://portal.test/auth/google/callback", q.Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"sub":"123","email":"ana@example.com","email_verified":true,"given_name":"Ana","family_name":"Silva"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGoogle(&config.Config{BaseURL: "https://portal.test", GoogleClientID: "cid", GoogleClientSecret: "sec"})
	g.config.Endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	g.userInfoURL = srv.URL + "/userinfo"

	_, err := g.Exchange(context.Background(), "a", "b", "code")
	assert.ErrorIs(t, err, ErrStateMismatch)

	id, err := g.Exchange(context.Background(), "s", "s", "code")
	require.NoError(t, err)
	assert.Equal(t, "123", id.Subject)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Silva", id.FamilyName)
}

func TestNewStateIsRandom(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}
