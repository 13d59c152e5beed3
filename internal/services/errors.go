package services

import "errors"

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrInvalidCode          = errors.New("invalid verification code")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrEmailMismatch        = errors.New("email does not match this account")
	ErrTOTPNotEnabled       = errors.New("two-factor authentication is not enabled")
	ErrEmptySelection       = errors.New("select at least one option")
	ErrShiftNotFound        = errors.New("shift not found")
	ErrInvalidTransition    = errors.New("shift cannot change to that status")
	ErrCancelWindow         = errors.New("shifts can only be cancelled more than 24 hours before they start")
	ErrProfessionalNotFound = errors.New("no professional with that email")
	ErrUnverifiedEmail      = errors.New("external account email is not verified")
)
