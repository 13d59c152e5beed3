package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const totpIssuer = "hcportal"

type PreferencesInput struct {
	Locale             string `form:"locale" validate:"required,oneof=en pt"`
	EmailNotifications bool   `form:"email_notifications"`
	ShiftReminders     bool   `form:"shift_reminders"`
}

// TOTPSetup is a pending enrollment; the secret only becomes active once a
// code generated from it is confirmed.
type TOTPSetup struct {
	Secret string
	URL    string
}

type SettingsService struct {
	queries *db.Queries
	users   *UserCache
}

func NewSettingsService(queries *db.Queries, users *UserCache) *SettingsService {
	return &SettingsService{queries: queries, users: users}
}

func (s *SettingsService) UpdatePreferences(ctx context.Context, userID int64, in PreferencesInput) error {
	if err := validator.Validate(in); err != nil {
		return err
	}
	if err := s.queries.UpdateUserSettings(ctx, db.UpdateUserSettingsParams{
		Locale:             in.Locale,
		EmailNotifications: in.EmailNotifications,
		ShiftReminders:     in.ShiftReminders,
		ID:                 userID,
	}); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	s.users.Invalidate(userID)
	return nil
}

func (s *SettingsService) ChangePassword(ctx context.Context, user db.User, current, next string) error {
	if err := checkPassword(user, current); err != nil {
		return err
	}
	if err := validator.ValidatePassword(next); err != nil {
		return validator.FieldErrors{"new_password": err.Error()}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, db.UpdateUserPasswordParams{
		PasswordHash: string(hash),
		Email:        user.Email,
	}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.users.Invalidate(user.ID)
	return nil
}

func (s *SettingsService) StartTOTP(user db.User) (TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return TOTPSetup{}, fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return TOTPSetup{Secret: key.Secret(), URL: key.URL()}, nil
}

func (s *SettingsService) ConfirmTOTP(ctx context.Context, userID int64, secret, code string) error {
	if secret == "" || !totp.Validate(strings.TrimSpace(code), secret) {
		return ErrInvalidCode
	}
	if err := s.queries.UpdateUserTOTP(ctx, db.UpdateUserTOTPParams{
		TotpSecret:  sql.NullString{String: secret, Valid: true},
		TotpEnabled: true,
		ID:          userID,
	}); err != nil {
		return fmt.Errorf("failed to enable totp: %w", err)
	}
	s.users.Invalidate(userID)
	return nil
}

func (s *SettingsService) DisableTOTP(ctx context.Context, user db.User, code string) error {
	if !user.TotpEnabled || !user.TotpSecret.Valid {
		return ErrTOTPNotEnabled
	}
	if !totp.Validate(strings.TrimSpace(code), user.TotpSecret.String) {
		return ErrInvalidCode
	}
	if err := s.queries.UpdateUserTOTP(ctx, db.UpdateUserTOTPParams{ID: user.ID}); err != nil {
		return fmt.Errorf("failed to disable totp: %w", err)
	}
	s.users.Invalidate(user.ID)
	return nil
}

// DeleteAccount remove o usuário; as tabelas filhas caem em cascata.
// confirmation é a senha; contas só Google usam o código TOTP ou o e-mail.
func (s *SettingsService) DeleteAccount(ctx context.Context, user db.User, confirmation string) error {
	if err := confirmDeletion(user, confirmation); err != nil {
		return err
	}
	if err := s.queries.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.users.Invalidate(user.ID)
	return nil
}

func confirmDeletion(user db.User, confirmation string) error {
	if user.PasswordHash != "" {
		return checkPassword(user, confirmation)
	}
	confirmation = strings.TrimSpace(confirmation)
	switch {
	case user.TotpEnabled && user.TotpSecret.Valid:
		if !totp.Validate(confirmation, user.TotpSecret.String) {
			return ErrInvalidCode
		}
		return nil
	case confirmation == "" || !strings.EqualFold(confirmation, user.Email):
		return ErrEmailMismatch
	}
	return nil
}

func checkPassword(user db.User, password string) error {
	if user.PasswordHash == "" || password == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
