package db

import (
	"context"
	"time"
)

const upsertEmailVerification = `-- name: UpsertEmailVerification :exec
INSERT INTO email_verifications (email, token, expires_at) VALUES (?, ?, ?)
ON CONFLICT(email) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at`

type UpsertEmailVerificationParams struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

func (q *Queries) UpsertEmailVerification(ctx context.Context, arg UpsertEmailVerificationParams) error {
	_, err := q.db.ExecContext(ctx, upsertEmailVerification, arg.Email, arg.Token, Timestamp(arg.ExpiresAt))
	return err
}

const getEmailVerificationByToken = `-- name: GetEmailVerificationByToken :one
SELECT email, token, expires_at FROM email_verifications WHERE token = ?`

func (q *Queries) GetEmailVerificationByToken(ctx context.Context, token string) (EmailVerification, error) {
	row := q.db.QueryRowContext(ctx, getEmailVerificationByToken, token)
	var i EmailVerification
	err := row.Scan(&i.Email, &i.Token, &i.ExpiresAt)
	return i, err
}

const deleteEmailVerification = `-- name: DeleteEmailVerification :exec
DELETE FROM email_verifications WHERE email = ?`

func (q *Queries) DeleteEmailVerification(ctx context.Context, email string) error {
	_, err := q.db.ExecContext(ctx, deleteEmailVerification, email)
	return err
}

const upsertPasswordReset = `-- name: UpsertPasswordReset :exec
INSERT INTO password_resets (email, token_hash, expires_at) VALUES (?, ?, ?)
ON CONFLICT(email) DO UPDATE SET token_hash = excluded.token_hash, expires_at = excluded.expires_at`

type UpsertPasswordResetParams struct {
	Email     string
	TokenHash string
	ExpiresAt time.Time
}

func (q *Queries) UpsertPasswordReset(ctx context.Context, arg UpsertPasswordResetParams) error {
	_, err := q.db.ExecContext(ctx, upsertPasswordReset, arg.Email, arg.TokenHash, Timestamp(arg.ExpiresAt))
	return err
}

const getPasswordResetByToken = `-- name: GetPasswordResetByToken :one
SELECT email, token_hash, expires_at FROM password_resets WHERE token_hash = ?`

func (q *Queries) GetPasswordResetByToken(ctx context.Context, tokenHash string) (PasswordReset, error) {
	row := q.db.QueryRowContext(ctx, getPasswordResetByToken, tokenHash)
	var i PasswordReset
	err := row.Scan(&i.Email, &i.TokenHash, &i.ExpiresAt)
	return i, err
}

const deletePasswordReset = `-- name: DeletePasswordReset :exec
DELETE FROM password_resets WHERE email = ?`

func (q *Queries) DeletePasswordReset(ctx context.Context, email string) error {
	_, err := q.db.ExecContext(ctx, deletePasswordReset, email)
	return err
}
