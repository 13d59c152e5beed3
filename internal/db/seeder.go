package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PauloHFS/hcportal/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

const (
	SeedAdminEmail        = "admin@hcportal.local"
	SeedProfessionalEmail = "pharmacist@hcportal.local"
	seedPassword          = "admin123"
)

// Seed cria um admin e um profissional de demonstração com alguns turnos.
// Rodar duas vezes não duplica nada.
func Seed(ctx context.Context, dbConn *sql.DB) error {
	queries := New(dbConn)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	if _, err := seedUser(ctx, queries, SeedAdminEmail, string(hash), RoleAdmin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	pro, err := seedUser(ctx, queries, SeedProfessionalEmail, string(hash), RoleProfessional)
	if err != nil {
		return fmt.Errorf("failed to seed professional: %w", err)
	}

	if _, err := queries.UpdateUserProfile(ctx, UpdateUserProfileParams{
		FirstName:     "Ana",
		LastName:      "Costa",
		Profession:    "pharmacist",
		LicenseNumber: "PH12345",
		ID:            pro.ID,
	}); err != nil {
		return fmt.Errorf("failed to seed profile: %w", err)
	}

	for _, code := range []string{"en", "pt"} {
		if err := queries.AddUserLanguage(ctx, pro.ID, code); err != nil {
			return fmt.Errorf("failed to seed language: %w", err)
		}
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	shifts := []CreateShiftParams{
		{ExternalID: "seed-1", PharmacyName: "Central Pharmacy", StartsAt: day.Add(48 * time.Hour).Add(8 * time.Hour), EndsAt: day.Add(48 * time.Hour).Add(16 * time.Hour), HourlyRateCents: 3500},
		{ExternalID: "seed-2", PharmacyName: "Riverside Pharmacy", StartsAt: day.Add(96 * time.Hour).Add(12 * time.Hour), EndsAt: day.Add(96 * time.Hour).Add(20 * time.Hour), HourlyRateCents: 3800},
		{ExternalID: "seed-3", PharmacyName: "Old Town Pharmacy", StartsAt: day.Add(-72 * time.Hour).Add(9 * time.Hour), EndsAt: day.Add(-72 * time.Hour).Add(17 * time.Hour), HourlyRateCents: 3600},
	}
	for _, s := range shifts {
		s.UserID = pro.ID
		s.Source = "seed"
		s.PharmacyAddress = "1 Main Street"
		if _, _, err := queries.CreateShift(ctx, s); err != nil {
			return fmt.Errorf("failed to seed shift: %w", err)
		}
	}

	logging.Get().Info("database seeded successfully",
		slog.String("admin_email", SeedAdminEmail),
		slog.String("professional_email", SeedProfessionalEmail),
		slog.String("default_password", seedPassword),
	)
	return nil
}

func seedUser(ctx context.Context, queries *Queries, email, hash, role string) (User, error) {
	user, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, err
	}
	return queries.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
	})
}
