package domain

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnauthorized       = errors.New("sender not authorized")
	ErrForbidden          = errors.New("insufficient role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrConflict           = errors.New("tax id or email already registered")
	ErrSelfTransfer       = errors.New("cannot transfer to self")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrPersistence        = errors.New("persistence failed")
)

// Kind groups errors into the categories callers branch on.
type Kind string

const (
	KindNone              Kind = ""
	KindValidation        Kind = "validation"
	KindAuth              Kind = "auth"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindSelfTransfer      Kind = "self_transfer"
	KindPersistence       Kind = "persistence"
	KindInternal          Kind = "internal"
)

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidAmount):
		return KindValidation
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidCredentials):
		return KindAuth
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrRecipientNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrSelfTransfer):
		return KindSelfTransfer
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	default:
		return KindInternal
	}
}
