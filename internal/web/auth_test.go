package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeRedirects(t *testing.T) {
	app := newTestApp(t)

	resp := app.get("/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.Login, resp.Header.Get("Location"))

	app.user("ana@example.com")
	app.login("ana@example.com")

	resp = app.get("/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.MyShifts, resp.Header.Get("Location"))

	resp = app.get("/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterLoginLogout(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	resp := app.post(routes.Register, url.Values{"email": {"new@example.com"}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, readBody(t, resp))
	assert.Equal(t, routes.Login, resp.Header.Get("Location"))

	body := readBody(t, app.get(routes.Login))
	assert.Contains(t, body, "Account created!")

	pending, err := app.deps.Queries.CountJobsByStatus(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending, "verification email job")

	// conta nova ainda sem idiomas vai para o onboarding
	resp = app.post(routes.Login, url.Values{"email": {"new@example.com"}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.Languages+"?onboarding=1", resp.Header.Get("Location"))

	assert.Equal(t, http.StatusOK, app.get(routes.MyShifts).StatusCode)

	resp = app.post(routes.Logout, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = app.get(routes.MyShifts)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.Login, resp.Header.Get("Location"))
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	app := newTestApp(t)
	app.user("taken@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"bad email", "not-an-email", testPassword, `class="field-error"`},
		{"short password", "ok@example.com", "short", `class="field-error"`},
		{"email taken", "taken@example.com", testPassword, "already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := app.post(routes.Register, url.Values{"email": {tt.email}, "password": {tt.password}})
			body := readBody(t, resp)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.want)
		})
	}
}

func TestLoginWithWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.user("ana@example.com")

	resp := app.post(routes.Login, url.Values{"email": {"ana@example.com"}, "password": {"wrong-password"}})
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Invalid email or password")
	assert.Contains(t, body, `value="ana@example.com"`)
}

func TestLoginWithTwoFactor(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	user := app.user("ana@example.com")

	setup, err := app.deps.Settings.StartTOTP(user)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, app.deps.Settings.ConfirmTOTP(ctx, user.ID, setup.Secret, code))

	resp := app.post(routes.Login, url.Values{"email": {"ana@example.com"}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.LoginTwoFactor, resp.Header.Get("Location"))

	// sessão ainda não autenticada
	resp = app.get(routes.MyShifts)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.Login, resp.Header.Get("Location"))

	assert.Equal(t, http.StatusOK, app.get(routes.LoginTwoFactor).StatusCode)

	resp = app.post(routes.LoginTwoFactor, url.Values{"code": {"000000"}})
	if code != "000000" {
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Invalid code")
	}

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	resp = app.post(routes.LoginTwoFactor, url.Values{"code": {code}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	assert.Equal(t, http.StatusOK, app.get(routes.MyShifts).StatusCode)
}

func TestTwoFactorPageWithoutPendingLogin(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(routes.LoginTwoFactor)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.Login, resp.Header.Get("Location"))
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	app.user("ana@example.com")

	for _, email := range []string{"ana@example.com", "ghost@example.com"} {
		resp := app.post(routes.ForgotPassword, url.Values{"email": {email}})
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, email)
		assert.Contains(t, body, "If an account exists", email)
	}

	pending, err := app.deps.Queries.CountJobsByStatus(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending, "only the real account gets an email")
}

func TestResetPasswordWithInvalidToken(t *testing.T) {
	app := newTestApp(t)

	resp := app.post(routes.ResetPassword, url.Values{"token": {"nope"}, "password": {testPassword}})
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "invalid or has expired")
}

func TestVerifyEmailWithInvalidToken(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(routes.VerifyEmail + "?token=nope")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, readBody(t, app.get(routes.Login)), "invalid or has expired")
}

func TestCSRFRejectsFormsWithoutToken(t *testing.T) {
	app := newTestApp(t)
	app.user("ana@example.com")

	form := url.Values{"email": {"ana@example.com"}, "password": {testPassword}}
	resp := app.postRaw(routes.Login, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebhooksSkipCSRF(t *testing.T) {
	app := newTestApp(t)

	body := `{"id":"r-1","professional_email":"ana@example.com","pharmacy_name":"Central",
		"pharmacy_address":"Rua 1","starts_at":"2030-01-01T08:00:00Z","ends_at":"2030-01-01T16:00:00Z",
		"hourly_rate_cents":3000}`
	resp := app.postRaw(routes.WebhookRoute("rota"), "application/json", strings.NewReader(body))
	assert.Equal(t, http.StatusOK, resp.StatusCode, readBody(t, resp))
}

func TestGoogleSignInDisabledWithoutCredentials(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusNotFound, app.get(routes.GoogleLogin).StatusCode)
	assert.Equal(t, http.StatusNotFound, app.get(routes.GoogleCallback+"?code=x&state=y").StatusCode)
	assert.NotContains(t, readBody(t, app.get(routes.Login)), routes.GoogleLogin)
}
