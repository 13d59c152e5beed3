package db

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email, password_hash, role, is_verified, google_id, avatar_url,
	first_name, last_name, phone, profession, license_number, bio,
	locale, email_notifications, shift_reminders, totp_secret, totp_enabled,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Role,
		&i.IsVerified,
		&i.GoogleID,
		&i.AvatarUrl,
		&i.FirstName,
		&i.LastName,
		&i.Phone,
		&i.Profession,
		&i.LicenseNumber,
		&i.Bio,
		&i.Locale,
		&i.EmailNotifications,
		&i.ShiftReminders,
		&i.TotpSecret,
		&i.TotpEnabled,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :execlastid
INSERT INTO users (email, password_hash, role, google_id, is_verified)
VALUES (?, ?, ?, ?, ?)`

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	GoogleID     sql.NullString
	IsVerified   bool
}

// CreateUser não usa RETURNING: o driver perde o tipo declarado das colunas
// DATETIME nesse caso e o Scan em time.Time falha.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	role := arg.Role
	if role == "" {
		role = RoleProfessional
	}
	res, err := q.db.ExecContext(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		role,
		arg.GoogleID,
		arg.IsVerified,
	)
	if err != nil {
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, id)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	return scanUser(row)
}

const getUserByGoogleID = `-- name: GetUserByGoogleID :one
SELECT ` + userColumns + ` FROM users WHERE google_id = ?`

func (q *Queries) GetUserByGoogleID(ctx context.Context, googleID string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByGoogleID, googleID)
	return scanUser(row)
}

const linkGoogleAccount = `-- name: LinkGoogleAccount :exec
UPDATE users SET google_id = ?, is_verified = 1, updated_at = ? WHERE id = ?`

func (q *Queries) LinkGoogleAccount(ctx context.Context, userID int64, googleID string) error {
	_, err := q.db.ExecContext(ctx, linkGoogleAccount, googleID, Timestamp(time.Now()), userID)
	return err
}

const listUsersPaginated = `-- name: ListUsersPaginated :many
SELECT ` + userColumns + ` FROM users
WHERE (? = '' OR email LIKE '%' || ? || '%' OR first_name LIKE '%' || ? || '%' OR last_name LIKE '%' || ? || '%')
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

type ListUsersPaginatedParams struct {
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListUsersPaginated(ctx context.Context, arg ListUsersPaginatedParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsersPaginated,
		arg.Search, arg.Search, arg.Search, arg.Search,
		arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = ?, updated_at = ? WHERE email = ? COLLATE NOCASE`

type UpdateUserPasswordParams struct {
	PasswordHash string
	Email        string
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, Timestamp(time.Now()), arg.Email)
	return err
}

const verifyUser = `-- name: VerifyUser :exec
UPDATE users SET is_verified = 1, updated_at = ? WHERE email = ? COLLATE NOCASE`

func (q *Queries) VerifyUser(ctx context.Context, email string) error {
	_, err := q.db.ExecContext(ctx, verifyUser, Timestamp(time.Now()), email)
	return err
}

const updateUserAvatar = `-- name: UpdateUserAvatar :exec
UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`

type UpdateUserAvatarParams struct {
	AvatarUrl sql.NullString
	ID        int64
}

func (q *Queries) UpdateUserAvatar(ctx context.Context, arg UpdateUserAvatarParams) error {
	_, err := q.db.ExecContext(ctx, updateUserAvatar, arg.AvatarUrl, Timestamp(time.Now()), arg.ID)
	return err
}

const updateUserProfile = `-- name: UpdateUserProfile :exec
UPDATE users
SET first_name = ?, last_name = ?, phone = ?, profession = ?, license_number = ?, bio = ?, updated_at = ?
WHERE id = ?`

type UpdateUserProfileParams struct {
	FirstName     string
	LastName      string
	Phone         string
	Profession    string
	LicenseNumber string
	Bio           string
	ID            int64
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	_, err := q.db.ExecContext(ctx, updateUserProfile,
		arg.FirstName,
		arg.LastName,
		arg.Phone,
		arg.Profession,
		arg.LicenseNumber,
		arg.Bio,
		Timestamp(time.Now()),
		arg.ID,
	)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

const updateUserSettings = `-- name: UpdateUserSettings :exec
UPDATE users SET locale = ?, email_notifications = ?, shift_reminders = ?, updated_at = ? WHERE id = ?`

type UpdateUserSettingsParams struct {
	Locale             string
	EmailNotifications bool
	ShiftReminders     bool
	ID                 int64
}

func (q *Queries) UpdateUserSettings(ctx context.Context, arg UpdateUserSettingsParams) error {
	_, err := q.db.ExecContext(ctx, updateUserSettings,
		arg.Locale,
		arg.EmailNotifications,
		arg.ShiftReminders,
		Timestamp(time.Now()),
		arg.ID,
	)
	return err
}

const updateUserTOTP = `-- name: UpdateUserTOTP :exec
UPDATE users SET totp_secret = ?, totp_enabled = ?, updated_at = ? WHERE id = ?`

type UpdateUserTOTPParams struct {
	TotpSecret  sql.NullString
	TotpEnabled bool
	ID          int64
}

func (q *Queries) UpdateUserTOTP(ctx context.Context, arg UpdateUserTOTPParams) error {
	_, err := q.db.ExecContext(ctx, updateUserTOTP, arg.TotpSecret, arg.TotpEnabled, Timestamp(time.Now()), arg.ID)
	return err
}

const deleteUser = `-- name: DeleteUser :exec
DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}
