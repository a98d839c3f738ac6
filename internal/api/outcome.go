package api

import (
	"errors"
	"net/http"

	"github.com/punchamoorthee/orionledger/internal/domain"
)

const internalErrorMessage = "Internal error, please try again later"

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInsufficientFunds, domain.KindSelfTransfer:
		return http.StatusUnprocessableEntity
	case domain.KindAuth:
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError writes err as a failure outcome. Storage and unknown
// faults are logged here and reported generically.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "path", r.URL.Path, "error", err)
		respondWithError(w, code, internalErrorMessage)
		return
	}
	respondWithError(w, code, messageFor(err))
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient funds for this transaction"
	case errors.Is(err, domain.ErrSelfTransfer):
		return "You cannot transfer to yourself"
	case errors.Is(err, domain.ErrRecipientNotFound):
		return "Recipient not found"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "Invalid transfer amount"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, domain.ErrConflict):
		return "Tax id or email already registered"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "Account not found"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return "Operation not allowed for this account"
	default:
		return err.Error()
	}
}
