package db

import (
	"context"
	"time"
)

const getBankAccount = `-- name: GetBankAccount :one
SELECT user_id, account_holder, iban_encrypted, iban_last4, bic, updated_at FROM bank_accounts WHERE user_id = ?`

func (q *Queries) GetBankAccount(ctx context.Context, userID int64) (BankAccount, error) {
	var i BankAccount
	err := q.db.QueryRowContext(ctx, getBankAccount, userID).Scan(
		&i.UserID,
		&i.AccountHolder,
		&i.IbanEncrypted,
		&i.IbanLast4,
		&i.Bic,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertBankAccount = `-- name: UpsertBankAccount :exec
INSERT INTO bank_accounts (user_id, account_holder, iban_encrypted, iban_last4, bic, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    account_holder = excluded.account_holder,
    iban_encrypted = excluded.iban_encrypted,
    iban_last4 = excluded.iban_last4,
    bic = excluded.bic,
    updated_at = excluded.updated_at`

type UpsertBankAccountParams struct {
	UserID        int64
	AccountHolder string
	IbanEncrypted string
	IbanLast4     string
	Bic           string
}

func (q *Queries) UpsertBankAccount(ctx context.Context, arg UpsertBankAccountParams) error {
	_, err := q.db.ExecContext(ctx, upsertBankAccount,
		arg.UserID,
		arg.AccountHolder,
		arg.IbanEncrypted,
		arg.IbanLast4,
		arg.Bic,
		Timestamp(time.Now()),
	)
	return err
}

const deleteBankAccount = `-- name: DeleteBankAccount :exec
DELETE FROM bank_accounts WHERE user_id = ?`

func (q *Queries) DeleteBankAccount(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteBankAccount, userID)
	return err
}
