package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/PauloHFS/hcportal/internal/catalog"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/testutil"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/PauloHFS/hcportal/internal/vault"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileUpdate(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	cache := NewUserCache(q, 8, time.Minute)
	svc := NewProfileService(q, catalog.Default(), cache)
	user := testutil.CreateUser(t, q, "profile@example.com", "password123")

	// aquece o cache para garantir a invalidação
	_, err := cache.Get(ctx, user.ID)
	require.NoError(t, err)

	updated, in, err := svc.Update(ctx, user.ID, ProfileInput{
		FirstName:     " Ana ",
		LastName:      "Silva",
		Phone:         "+351 912 345 678",
		Profession:    "pharmacist",
		LicenseNumber: "op-12345",
		Bio:           `<script>alert(1)</script>Hospital <b>pharmacist</b>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "OP-12345", updated.LicenseNumber)
	assert.Equal(t, "Hospital pharmacist", in.Bio)
	assert.Equal(t, 0, cache.Len())

	_, _, err = svc.Update(ctx, user.ID, ProfileInput{Profession: "surgeon", Bio: strings.Repeat("x", 1001)})
	var fe validator.FieldErrors
	require.ErrorAs(t, err, &fe)
	for _, field := range []string{"first_name", "last_name", "profession", "bio"} {
		assert.Contains(t, fe, field)
	}
}

func TestProfileBioKeepsPlainText(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewProfileService(q, catalog.Default(), nil)
	user := testutil.CreateUser(t, q, "bio@example.com", "password123")

	base := ProfileInput{FirstName: "Ana", LastName: "Silva", Profession: "pharmacist"}

	in := base
	in.Bio = `Tom & Jerry <3 "quotes" it's`
	updated, _, err := svc.Update(ctx, user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry <3 "quotes" it's`, updated.Bio)

	in.Bio = strings.Repeat("'", 1000)
	updated, _, err = svc.Update(ctx, user.ID, in)
	require.NoError(t, err)
	assert.Len(t, updated.Bio, 1000)

	in.Bio = strings.Repeat("é", 1000)
	_, _, err = svc.Update(ctx, user.ID, in)
	require.NoError(t, err, "limit counts characters, not bytes")

	in.Bio = strings.Repeat("'", 1001)
	_, _, err = svc.Update(ctx, user.ID, in)
	var fe validator.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "bio")
}

func TestProfileGetResolvesCatalogNames(t *testing.T) {
	conn, q := testutil.NewDB(t)
	ctx := context.Background()
	cat := catalog.Default()
	user := testutil.CreateUser(t, q, "names@example.com", "password123")

	sel := NewSelectionService(conn, q, cat)
	require.NoError(t, sel.Replace(ctx, user.ID, catalog.KindLanguage, []string{"pt", "en"}))
	require.NoError(t, sel.Replace(ctx, user.ID, catalog.KindSoftware, []string{"sifarma"}))

	profile, err := NewProfileService(q, cat, nil).Get(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, profile.Languages, 2)
	require.Len(t, profile.Software, 1)
	assert.Equal(t, cat.Name(catalog.KindSoftware, "sifarma"), profile.Software[0].Name)

	require.NoError(t, NewProfileService(q, cat, nil).SetAvatar(ctx, user.ID, "/storage/avatars/a.png"))
	reloaded, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "/storage/avatars/a.png", reloaded.AvatarUrl.String)
}

func TestSelectionReplace(t *testing.T) {
	conn, q := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewSelectionService(conn, q, catalog.Default())
	user := testutil.CreateUser(t, q, "sel@example.com", "password123")

	assert.ErrorIs(t, svc.Replace(ctx, user.ID, catalog.KindLanguage, []string{" ", ""}), ErrEmptySelection)
	assert.ErrorIs(t, svc.Replace(ctx, user.ID, catalog.KindLanguage, []string{"en", "klingon"}), catalog.ErrUnknownCode)

	require.NoError(t, svc.Replace(ctx, user.ID, catalog.KindLanguage, []string{"en", "pt", "en"}))
	got, err := svc.Get(ctx, user.ID, catalog.KindLanguage)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"en": true, "pt": true}, got.Selected)
	assert.NotEmpty(t, got.Items)

	require.NoError(t, svc.Replace(ctx, user.ID, catalog.KindLanguage, []string{"fr"}))
	got, err = svc.Get(ctx, user.ID, catalog.KindLanguage)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"fr": true}, got.Selected)
}

func TestBankAccountRoundTrip(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	v, err := vault.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	svc := NewBankService(q, v)
	user := testutil.CreateUser(t, q, "bank@example.com", "password123")

	none, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = svc.Save(ctx, user.ID, BankAccountInput{AccountHolder: "Ana", IBAN: "GB82 WEST 1234 5698 7654 33"})
	var fe validator.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "iban")

	in, err := svc.Save(ctx, user.ID, BankAccountInput{AccountHolder: "Ana Silva", IBAN: "gb82 west 1234 5698 7654 32", BIC: "westgb22"})
	require.NoError(t, err)
	assert.Equal(t, "GB82WEST12345698765432", in.IBAN)

	raw, err := q.GetBankAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.NotContains(t, raw.IbanEncrypted, "WEST")

	view, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "5432", view.Last4)
	assert.Equal(t, "GB", view.Country)
	assert.Equal(t, "WESTGB22", view.BIC)

	require.NoError(t, svc.Delete(ctx, user.ID))
	view, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestSettingsPreferencesAndPassword(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewSettingsService(q, NewUserCache(q, 8, time.Minute))
	user := testutil.CreateUser(t, q, "settings@example.com", "password123")

	var fe validator.FieldErrors
	require.ErrorAs(t, svc.UpdatePreferences(ctx, user.ID, PreferencesInput{Locale: "de"}), &fe)

	require.NoError(t, svc.UpdatePreferences(ctx, user.ID, PreferencesInput{Locale: "pt", ShiftReminders: true}))
	reloaded, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "pt", reloaded.Locale)
	assert.False(t, reloaded.EmailNotifications)
	assert.True(t, reloaded.ShiftReminders)

	assert.ErrorIs(t, svc.ChangePassword(ctx, reloaded, "wrong", "newpassword1"), ErrWrongPassword)
	require.ErrorAs(t, svc.ChangePassword(ctx, reloaded, "password123", "short"), &fe)
	require.NoError(t, svc.ChangePassword(ctx, reloaded, "password123", "newpassword1"))
}

func TestSettingsTOTPLifecycle(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewSettingsService(q, NewUserCache(q, 8, time.Minute))
	user := testutil.CreateUser(t, q, "2fa@example.com", "password123")

	assert.ErrorIs(t, svc.DisableTOTP(ctx, user, "123456"), ErrTOTPNotEnabled)

	setup, err := svc.StartTOTP(user)
	require.NoError(t, err)
	assert.Contains(t, setup.URL, "otpauth://totp/hcportal")

	assert.ErrorIs(t, svc.ConfirmTOTP(ctx, user.ID, setup.Secret, "000000"), ErrInvalidCode)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmTOTP(ctx, user.ID, setup.Secret, code))

	enabled, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, enabled.TotpEnabled)

	require.NoError(t, svc.DisableTOTP(ctx, enabled, code))
	disabled, err := q.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, disabled.TotpEnabled)
	assert.False(t, disabled.TotpSecret.Valid)
}

func TestDeleteAccount(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewSettingsService(q, nil)
	user := testutil.CreateUser(t, q, "bye@example.com", "password123")

	assert.ErrorIs(t, svc.DeleteAccount(ctx, user, "nope"), ErrWrongPassword)
	require.NoError(t, svc.DeleteAccount(ctx, user, "password123"))

	_, err := q.GetUserByID(ctx, user.ID)
	assert.Error(t, err)
}

func TestDeleteGoogleAccount(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewSettingsService(q, nil)

	google := func(email, sub string) db.User {
		user, err := q.CreateUser(ctx, db.CreateUserParams{
			Email:      email,
			Role:       db.RoleProfessional,
			GoogleID:   sql.NullString{String: sub, Valid: true},
			IsVerified: true,
		})
		require.NoError(t, err)
		return user
	}

	t.Run("confirms with email", func(t *testing.T) {
		user := google("g1@example.com", "sub-1")
		assert.ErrorIs(t, svc.DeleteAccount(ctx, user, ""), ErrEmailMismatch)
		assert.ErrorIs(t, svc.DeleteAccount(ctx, user, "other@example.com"), ErrEmailMismatch)
		require.NoError(t, svc.DeleteAccount(ctx, user, " G1@Example.com "))

		_, err := q.GetUserByID(ctx, user.ID)
		assert.Error(t, err)
	})

	t.Run("confirms with totp when enabled", func(t *testing.T) {
		user := google("g2@example.com", "sub-2")
		setup, err := svc.StartTOTP(user)
		require.NoError(t, err)
		code, err := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, svc.ConfirmTOTP(ctx, user.ID, setup.Secret, code))
		enabled, err := q.GetUserByID(ctx, user.ID)
		require.NoError(t, err)

		assert.ErrorIs(t, svc.DeleteAccount(ctx, enabled, "g2@example.com"), ErrInvalidCode)
		require.NoError(t, svc.DeleteAccount(ctx, enabled, code))
	})
}

func TestUserCache(t *testing.T) {
	_, q := testutil.NewDB(t)
	ctx := context.Background()
	cache := NewUserCache(q, 8, time.Minute)
	user := testutil.CreateUser(t, q, "cache@example.com", "password123")

	got, err := cache.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate(user.ID)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Get(ctx, 424242)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len(), "misses are not cached")

	var nilCache *UserCache
	assert.NotPanics(t, func() { nilCache.Invalidate(1) })
}

func TestShiftListDatabaseFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("FROM shifts").WillReturnError(errors.New("database is locked"))

	svc := NewShiftService(conn, db.New(conn))
	_, err = svc.List(context.Background(), 1, TabUpcoming, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list upcoming shifts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRollsBackOnInsertFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_languages").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INTO user_languages").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	svc := NewSelectionService(conn, db.New(conn), catalog.Default())
	err = svc.Replace(context.Background(), 1, catalog.KindLanguage, []string{"en"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
