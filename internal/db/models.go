package db

import (
	"database/sql"
	"time"
)

const (
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

type User struct {
	ID                 int64
	Email              string
	PasswordHash       string
	Role               string
	IsVerified         bool
	GoogleID           sql.NullString
	AvatarUrl          sql.NullString
	FirstName          string
	LastName           string
	Phone              string
	Profession         string
	LicenseNumber      string
	Bio                string
	Locale             string
	EmailNotifications bool
	ShiftReminders     bool
	TotpSecret         sql.NullString
	TotpEnabled        bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

type EmailVerification struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

type PasswordReset struct {
	Email     string
	TokenHash string
	ExpiresAt time.Time
}

type Job struct {
	ID           int64
	UserID       sql.NullInt64
	Type         string
	Payload      []byte
	Status       string
	AttemptCount int64
	MaxAttempts  int64
	LastError    sql.NullString
	RunAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DeadLetterJob struct {
	ID            int64
	OriginalJobID int64
	UserID        sql.NullInt64
	Type          string
	Payload       []byte
	AttemptCount  int64
	LastError     sql.NullString
	FailedAt      time.Time
}

type Webhook struct {
	ID         int64
	Source     string
	ExternalID string
	Payload    []byte
	Headers    []byte
	CreatedAt  time.Time
}

type BankAccount struct {
	UserID        int64
	AccountHolder string
	IbanEncrypted string
	IbanLast4     string
	Bic           string
	UpdatedAt     time.Time
}

const (
	ShiftOffered   = "offered"
	ShiftAccepted  = "accepted"
	ShiftDeclined  = "declined"
	ShiftCancelled = "cancelled"
	ShiftCompleted = "completed"
)

type Shift struct {
	ID              int64
	UserID          int64
	Source          string
	ExternalID      string
	PharmacyName    string
	PharmacyAddress string
	StartsAt        time.Time
	EndsAt          time.Time
	HourlyRateCents int64
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s Shift) Duration() time.Duration {
	return s.EndsAt.Sub(s.StartsAt)
}

// EarningsCents é o valor bruto do turno, arredondado para o centavo.
func (s Shift) EarningsCents() int64 {
	minutes := int64(s.Duration() / time.Minute)
	return (minutes*s.HourlyRateCents + 30) / 60
}
