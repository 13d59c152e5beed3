package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/PauloHFS/hcportal/internal/vault"
)

type BankAccountInput struct {
	AccountHolder string `form:"account_holder" validate:"required,max=100"`
	IBAN          string `form:"iban" validate:"required,iban"`
	BIC           string `form:"bic" validate:"omitempty,bic"`
}

// BankAccountView never carries the full IBAN.
type BankAccountView struct {
	AccountHolder string
	Country       string
	Last4         string
	BIC           string
	UpdatedAt     time.Time
}

type BankService struct {
	queries *db.Queries
	vault   *vault.Vault
}

func NewBankService(queries *db.Queries, v *vault.Vault) *BankService {
	return &BankService{queries: queries, vault: v}
}

// Get returns nil when the professional has no bank account on file.
func (s *BankService) Get(ctx context.Context, userID int64) (*BankAccountView, error) {
	acc, err := s.queries.GetBankAccount(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bank account: %w", err)
	}

	iban, err := s.vault.Decrypt(acc.IbanEncrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt iban: %w", err)
	}

	return &BankAccountView{
		AccountHolder: acc.AccountHolder,
		Country:       iban[:2],
		Last4:         acc.IbanLast4,
		BIC:           acc.Bic,
		UpdatedAt:     acc.UpdatedAt,
	}, nil
}

func (s *BankService) Save(ctx context.Context, userID int64, in BankAccountInput) (BankAccountInput, error) {
	in.AccountHolder = strings.TrimSpace(in.AccountHolder)
	in.IBAN = validator.NormalizeIBAN(in.IBAN)
	in.BIC = strings.ToUpper(strings.TrimSpace(in.BIC))

	if err := validator.Validate(in); err != nil {
		return in, err
	}

	encrypted, err := s.vault.Encrypt(in.IBAN)
	if err != nil {
		return in, fmt.Errorf("failed to encrypt iban: %w", err)
	}

	if err := s.queries.UpsertBankAccount(ctx, db.UpsertBankAccountParams{
		UserID:        userID,
		AccountHolder: in.AccountHolder,
		IbanEncrypted: encrypted,
		IbanLast4:     validator.IBANLast4(in.IBAN),
		Bic:           in.BIC,
	}); err != nil {
		return in, fmt.Errorf("failed to save bank account: %w", err)
	}
	return in, nil
}

func (s *BankService) Delete(ctx context.Context, userID int64) error {
	if err := s.queries.DeleteBankAccount(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete bank account: %w", err)
	}
	return nil
}
