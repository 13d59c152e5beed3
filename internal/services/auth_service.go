package services

import (
	"context"
	crypto_rand "crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/jobs"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

type AuthService struct {
	db      *sql.DB
	queries *db.Queries
	users   *UserCache
	now     func() time.Time
}

func NewAuthService(dbConn *sql.DB, queries *db.Queries, users *UserCache) *AuthService {
	return &AuthService{
		db:      dbConn,
		queries: queries,
		users:   users,
		now:     time.Now,
	}
}

// Register cria a conta e enfileira o e-mail de verificação na mesma transação.
func (s *AuthService) Register(ctx context.Context, email, password string) (db.User, error) {
	email = strings.TrimSpace(email)
	if fe := validator.ValidateRegistration(email, password); fe != nil {
		return db.User{}, fe
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return db.User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return db.User{}, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return db.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return db.User{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	user, err := qtx.CreateUser(ctx, db.CreateUserParams{
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return db.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return db.User{}, err
	}

	if err := qtx.UpsertEmailVerification(ctx, db.UpsertEmailVerificationParams{
		Email:     email,
		Token:     token,
		ExpiresAt: s.now().Add(verificationTTL),
	}); err != nil {
		return db.User{}, fmt.Errorf("failed to create verification: %w", err)
	}

	if _, err := jobs.Enqueue(ctx, qtx, user.ID, jobs.TypeSendVerificationEmail, jobs.EmailTokenPayload{
		Email: email,
		Token: token,
	}); err != nil {
		return db.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return db.User{}, fmt.Errorf("failed to commit registration: %w", err)
	}

	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	verification, err := s.queries.GetEmailVerificationByToken(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("failed to load verification: %w", err)
	}
	if verification.ExpiresAt.Before(s.now()) {
		return ErrInvalidToken
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	if err := qtx.VerifyUser(ctx, verification.Email); err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}

	if err := qtx.DeleteEmailVerification(ctx, verification.Email); err != nil {
		logging.Get().Warn("failed to delete email verification token", "error", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit email verification: %w", err)
	}

	if user, err := s.queries.GetUserByEmail(ctx, verification.Email); err == nil {
		s.users.Invalidate(user.ID)
	}
	return nil
}

// Authenticate confere e-mail e senha. Não diferencia e-mail inexistente de
// senha errada.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (db.User, error) {
	if email == "" || password == "" {
		return db.User{}, ErrInvalidCredentials
	}

	user, err := s.queries.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return db.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return db.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	if user.PasswordHash == "" {
		return db.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return db.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// VerifyTOTP checks code against the user's confirmed secret.
func (s *AuthService) VerifyTOTP(ctx context.Context, userID int64, code string) (db.User, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return db.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.TotpEnabled || !user.TotpSecret.Valid {
		return db.User{}, ErrTOTPNotEnabled
	}
	if !totp.Validate(strings.TrimSpace(code), user.TotpSecret.String) {
		return db.User{}, ErrInvalidCode
	}
	return user, nil
}

// ForgotPassword sempre retorna nil para e-mails válidos, exista a conta ou não.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validator.ValidateEmail(email); err != nil {
		return validator.FieldErrors{"email": err.Error()}
	}

	user, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	if err := qtx.UpsertPasswordReset(ctx, db.UpsertPasswordResetParams{
		Email:     user.Email,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(resetTTL),
	}); err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	if _, err := jobs.Enqueue(ctx, qtx, user.ID, jobs.TypeSendPasswordResetEmail, jobs.EmailTokenPayload{
		Email: user.Email,
		Token: token,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit forgot password: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if err := validator.ValidatePassword(password); err != nil {
		return validator.FieldErrors{"password": err.Error()}
	}

	reset, err := s.queries.GetPasswordResetByToken(ctx, hashToken(token))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("failed to load password reset: %w", err)
	}
	if reset.ExpiresAt.Before(s.now()) {
		return ErrInvalidToken
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	if err := qtx.UpdateUserPassword(ctx, db.UpdateUserPasswordParams{
		PasswordHash: string(newHash),
		Email:        reset.Email,
	}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := qtx.DeletePasswordReset(ctx, reset.Email); err != nil {
		logging.Get().Warn("failed to delete password reset token", "error", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit password reset: %w", err)
	}

	if user, err := s.queries.GetUserByEmail(ctx, reset.Email); err == nil {
		s.users.Invalidate(user.ID)
	}
	return nil
}

// ExternalIdentity is a profile returned by an OAuth provider.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
}

// SignInWithGoogle encontra a conta pelo google_id, vincula por e-mail
// verificado ou cria uma conta nova já verificada.
func (s *AuthService) SignInWithGoogle(ctx context.Context, id ExternalIdentity) (db.User, error) {
	user, err := s.queries.GetUserByGoogleID(ctx, id.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return db.User{}, fmt.Errorf("failed to look up google account: %w", err)
	}

	if !id.EmailVerified || id.Email == "" {
		return db.User{}, ErrUnverifiedEmail
	}

	user, err = s.queries.GetUserByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if err := s.queries.LinkGoogleAccount(ctx, user.ID, id.Subject); err != nil {
			return db.User{}, fmt.Errorf("failed to link google account: %w", err)
		}
		s.users.Invalidate(user.ID)
		return s.queries.GetUserByID(ctx, user.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return db.User{}, fmt.Errorf("failed to look up email: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return db.User{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	user, err = qtx.CreateUser(ctx, db.CreateUserParams{
		Email:      id.Email,
		GoogleID:   sql.NullString{String: id.Subject, Valid: true},
		IsVerified: true,
	})
	if err != nil {
		return db.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	if id.GivenName != "" || id.FamilyName != "" {
		user, err = qtx.UpdateUserProfile(ctx, db.UpdateUserProfileParams{
			FirstName: id.GivenName,
			LastName:  id.FamilyName,
			ID:        user.ID,
		})
		if err != nil {
			return db.User{}, fmt.Errorf("failed to set profile names: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return db.User{}, fmt.Errorf("failed to commit google sign-up: %w", err)
	}
	return user, nil
}

func randomToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := crypto_rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
