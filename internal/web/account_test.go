package web

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/PauloHFS/hcportal/internal/middleware"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUpdate(t *testing.T) {
	app := newTestApp(t)
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	t.Run("invalid input re-renders with errors", func(t *testing.T) {
		resp := app.post(routes.Profile, url.Values{
			"first_name": {""},
			"last_name":  {"Silva"},
			"profession": {"astronaut"},
		})
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `id="first_name-error"`)
		assert.Contains(t, body, `id="profession-error"`)
		assert.Contains(t, body, `value="Silva"`)
	})

	t.Run("valid input is saved and sanitized", func(t *testing.T) {
		resp := app.post(routes.Profile, url.Values{
			"first_name":     {"Ana"},
			"last_name":      {"Silva"},
			"profession":     {"pharmacist"},
			"license_number": {"ab123"},
			"bio":            {"<script>alert(1)</script>Ten years in retail"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, readBody(t, resp))
		assert.Equal(t, routes.Profile, resp.Header.Get("Location"))

		body := readBody(t, app.get(routes.Profile))
		assert.Contains(t, body, "Profile updated.")
		assert.Contains(t, body, "Ana Silva")

		saved := app.reload(user.ID)
		assert.Equal(t, "AB123", saved.LicenseNumber)
		assert.NotContains(t, saved.Bio, "<script>")
	})
}

func TestAvatarUpload(t *testing.T) {
	app := newTestApp(t)
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	upload := func(filename, contentType string, data []byte) *http.Response {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("csrf_token", app.csrf()))
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="avatar"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return app.postRaw(routes.ProfileAvatar, mw.FormDataContentType(), &buf)
	}

	t.Run("rejects disguised files", func(t *testing.T) {
		resp := upload("avatar.png", "image/png", []byte("just some text"))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "does not match")
		assert.False(t, app.reload(user.ID).AvatarUrl.Valid)
	})

	t.Run("rejects other extensions", func(t *testing.T) {
		resp := upload("avatar.exe", "image/png", png)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Extension not allowed")
	})

	t.Run("stores png and serves it", func(t *testing.T) {
		resp := upload("me.png", "image/png", png)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode, readBody(t, resp))

		saved := app.reload(user.ID)
		require.True(t, saved.AvatarUrl.Valid)
		assert.True(t, strings.HasPrefix(saved.AvatarUrl.String, "/storage/avatars/"), saved.AvatarUrl.String)

		resp = app.get(saved.AvatarUrl.String)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, png, []byte(readBody(t, resp)))
	})
}

func TestBankAccountPage(t *testing.T) {
	app := newTestApp(t)
	app.user("ana@example.com")
	app.login("ana@example.com")

	resp := app.post(routes.BankAccount, url.Values{
		"account_holder": {"Ana Silva"},
		"iban":           {"DE89 3704 0044 0532 0130 01"},
	})
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="iban-error"`)

	resp = app.post(routes.BankAccount, url.Values{
		"account_holder": {"Ana Silva"},
		"iban":           {"de89 3704 0044 0532 0130 00"},
		"bic":            {"cobadeffxxx"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, readBody(t, resp))

	body = readBody(t, app.get(routes.BankAccount))
	assert.Contains(t, body, "Bank account saved.")
	assert.Contains(t, body, "•••• 3000")
	assert.Contains(t, body, "COBADEFFXXX")
	assert.NotContains(t, body, "DE89370400440532013000")
	assert.NotContains(t, body, "3704 0044")

	resp = app.post(routes.BankAccountDelete, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	body = readBody(t, app.get(routes.BankAccount))
	assert.NotContains(t, body, "•••• 3000")
}

func TestSettingsPreferencesSetLocaleCookie(t *testing.T) {
	app := newTestApp(t)
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	resp := app.post(routes.Settings, url.Values{"locale": {"xx"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `id="locale-error"`)

	resp = app.post(routes.Settings, url.Values{"locale": {"pt"}, "shift_reminders": {"true"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var lang *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.LocaleCookie {
			lang = c
		}
	}
	require.NotNil(t, lang)
	assert.Equal(t, "pt", lang.Value)

	saved := app.reload(user.ID)
	assert.Equal(t, "pt", saved.Locale)
	assert.False(t, saved.EmailNotifications)
	assert.True(t, saved.ShiftReminders)

	assert.Contains(t, readBody(t, app.get(routes.Settings)), `<html lang="pt">`)
}

func TestSettingsChangePassword(t *testing.T) {
	app := newTestApp(t)
	app.user("ana@example.com")
	app.login("ana@example.com")

	resp := app.post(routes.SettingsPassword, url.Values{"current_password": {"nope"}, "new_password": {"another-pass-1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `id="current_password-error"`)

	resp = app.post(routes.SettingsPassword, url.Values{"current_password": {testPassword}, "new_password": {"another-pass-1"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	app.post(routes.Logout, nil)
	resp = app.post(routes.Login, url.Values{"email": {"ana@example.com"}, "password": {"another-pass-1"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestSettingsTOTPEnrollmentKeepsSecretInSession(t *testing.T) {
	app := newTestApp(t)
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	resp := app.post(routes.SettingsTOTP, nil)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `class="totp-secret"`)
	assert.Contains(t, body, "otpauth://")

	// recarregar a página mostra a mesma ativação pendente
	again := readBody(t, app.get(routes.Settings))
	assert.Contains(t, again, `class="totp-secret"`)

	resp = app.post(routes.SettingsTOTPOn, url.Values{"code": {"12"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `id="code-error"`)
	assert.False(t, app.reload(user.ID).TotpEnabled)
}

func TestSettingsDeleteAccount(t *testing.T) {
	app := newTestApp(t)
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	resp := app.post(routes.SettingsDelete, url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `id="password-error"`)

	resp = app.post(routes.SettingsDelete, url.Values{"password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, routes.Login, resp.Header.Get("Location"))

	_, err := app.deps.Queries.GetUserByID(context.Background(), user.ID)
	assert.Error(t, err)

	assert.Contains(t, readBody(t, app.get(routes.Login)), "Your account has been deleted.")
	assert.Equal(t, http.StatusSeeOther, app.get(routes.Profile).StatusCode)
}

func TestLanguagesAndSoftwareOnboarding(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	user := app.user("ana@example.com")
	app.login("ana@example.com")

	body := readBody(t, app.get(routes.Languages))
	assert.Contains(t, body, `name="onboarding" value="1"`, "empty selection starts onboarding")

	t.Run("empty selection", func(t *testing.T) {
		resp := app.post(routes.Languages, url.Values{"onboarding": {"1"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Select at least one option.")
	})

	t.Run("unknown code", func(t *testing.T) {
		resp := app.post(routes.Languages, url.Values{"codes": {"en", "klingon"}})
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "not available")
		assert.Contains(t, body, `value="en" checked`)

		langs, err := app.deps.Queries.ListUserLanguages(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, langs)
	})

	t.Run("onboarding chain", func(t *testing.T) {
		resp := app.post(routes.Languages, url.Values{"codes": {"en", "pt", "en"}, "onboarding": {"1"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, routes.Software+"?onboarding=1", resp.Header.Get("Location"))

		resp = app.post(routes.Software, url.Values{"codes": {"sifarma"}, "onboarding": {"1"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, routes.Profile, resp.Header.Get("Location"))

		langs, err := app.deps.Queries.ListUserLanguages(ctx, user.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"en", "pt"}, langs)
	})

	t.Run("later edits stay on the page", func(t *testing.T) {
		resp := app.post(routes.Languages, url.Values{"codes": {"es"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, routes.Languages, resp.Header.Get("Location"))

		body := readBody(t, app.get(routes.Languages))
		assert.Contains(t, body, `value="es" checked`)
		assert.NotContains(t, body, `name="onboarding"`)
	})

	t.Run("login skips onboarding once languages exist", func(t *testing.T) {
		app.post(routes.Logout, nil)
		resp := app.post(routes.Login, url.Values{"email": {"ana@example.com"}, "password": {testPassword}})
		assert.Equal(t, routes.MyShifts, resp.Header.Get("Location"))
	})
}
