package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/PauloHFS/hcportal/internal/view/pages"
)

func handleBankAccount(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	account, err := deps.Bank.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		return err
	}
	data := pages.BankAccountData{Account: account}
	if account != nil {
		data.Input = services.BankAccountInput{AccountHolder: account.AccountHolder, BIC: account.BIC}
	}
	return render(w, r, "bank_account", pages.BankAccountForm(data))
}

func handleSaveBankAccount(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "save_bank_account"))

	in, err := deps.Bank.Save(r.Context(), user.ID, services.BankAccountInput{
		AccountHolder: r.FormValue("account_holder"),
		IBAN:          r.FormValue("iban"),
		BIC:           r.FormValue("bic"),
	})
	var fe validator.FieldErrors
	if errors.As(err, &fe) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "validation_failed"))
		account, gerr := deps.Bank.Get(r.Context(), user.ID)
		if gerr != nil {
			return gerr
		}
		return render(w, r, "bank_account", pages.BankAccountForm(pages.BankAccountData{Account: account, Input: in, Errors: fe}))
	}
	if err != nil {
		return err
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithFlash(deps, w, r, routes.BankAccount, "Bank account saved.")
	return nil
}

func handleDeleteBankAccount(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "delete_bank_account"))
	if err := deps.Bank.Delete(r.Context(), currentUser(r).ID); err != nil {
		return err
	}
	redirectWithFlash(deps, w, r, routes.BankAccount, "Bank account removed.")
	return nil
}
