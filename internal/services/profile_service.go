package services

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"strings"

	"github.com/PauloHFS/hcportal/internal/catalog"
	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/microcosm-cc/bluemonday"
)

type ProfileInput struct {
	FirstName     string `form:"first_name" validate:"required,max=100"`
	LastName      string `form:"last_name" validate:"required,max=100"`
	Phone         string `form:"phone" validate:"omitempty,phone"`
	Profession    string `form:"profession" validate:"required,oneof=pharmacist pharmacy_technician pharmacy_assistant"`
	LicenseNumber string `form:"license_number" validate:"omitempty,license"`
	Bio           string `form:"bio" validate:"max=1000"`
}

func ProfileInputFromUser(u db.User) ProfileInput {
	return ProfileInput{
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Profession:    u.Profession,
		LicenseNumber: u.LicenseNumber,
		Bio:           u.Bio,
	}
}

// Profile is everything the profile page shows about a professional.
type Profile struct {
	User      db.User
	Languages []catalog.Item
	Software  []catalog.Item
}

type ProfileService struct {
	queries   *db.Queries
	catalog   *catalog.Catalog
	users     *UserCache
	sanitizer *bluemonday.Policy
}

func NewProfileService(queries *db.Queries, cat *catalog.Catalog, users *UserCache) *ProfileService {
	return &ProfileService{
		queries:   queries,
		catalog:   cat,
		users:     users,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (Profile, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load user: %w", err)
	}

	langs, err := s.queries.ListUserLanguages(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to list languages: %w", err)
	}
	software, err := s.queries.ListUserSoftware(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to list software: %w", err)
	}

	return Profile{
		User:      user,
		Languages: s.named(catalog.KindLanguage, langs),
		Software:  s.named(catalog.KindSoftware, software),
	}, nil
}

func (s *ProfileService) named(kind catalog.Kind, codes []string) []catalog.Item {
	items := make([]catalog.Item, 0, len(codes))
	for _, code := range codes {
		items = append(items, catalog.Item{Code: code, Name: s.catalog.Name(kind, code)})
	}
	return items
}

// Normalize apara espaços e remove qualquer HTML da bio. A bio fica em texto
// puro; o escape acontece uma vez só, na view.
func (s *ProfileService) Normalize(in ProfileInput) ProfileInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Profession = strings.TrimSpace(in.Profession)
	in.LicenseNumber = strings.ToUpper(strings.TrimSpace(in.LicenseNumber))
	in.Bio = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(in.Bio)))
	return in
}

// Update validates and stores the profile. Validation failures come back as
// validator.FieldErrors together with the normalized input.
func (s *ProfileService) Update(ctx context.Context, userID int64, in ProfileInput) (db.User, ProfileInput, error) {
	in = s.Normalize(in)
	if err := validator.Validate(in); err != nil {
		return db.User{}, in, err
	}

	user, err := s.queries.UpdateUserProfile(ctx, db.UpdateUserProfileParams{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Phone:         in.Phone,
		Profession:    in.Profession,
		LicenseNumber: in.LicenseNumber,
		Bio:           in.Bio,
		ID:            userID,
	})
	if err != nil {
		return db.User{}, in, fmt.Errorf("failed to update profile: %w", err)
	}

	s.users.Invalidate(userID)
	return user, in, nil
}

func (s *ProfileService) SetAvatar(ctx context.Context, userID int64, url string) error {
	if err := s.queries.UpdateUserAvatar(ctx, db.UpdateUserAvatarParams{
		AvatarUrl: sql.NullString{String: url, Valid: url != ""},
		ID:        userID,
	}); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	s.users.Invalidate(userID)
	return nil
}
