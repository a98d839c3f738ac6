package api

import (
	"net/http"

	"github.com/punchamoorthee/orionledger/internal/models"
	"github.com/punchamoorthee/orionledger/internal/repository"
)

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.ledger.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.respondDomainError(w, r, "authenticate", err)
		return
	}
	token, expiresAt, err := h.tokens.Issue(p)
	if err != nil {
		h.respondDomainError(w, r, "issue token", err)
		return
	}
	respondOK(w, http.StatusOK, "Login successful", models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		AccountID: p.AccountID,
		Role:      string(p.Role),
	})
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.ledger.Register(r.Context(), repository.NewAccount{
		DisplayName: req.Name,
		TaxID:       req.TaxID,
		Email:       req.Email,
		Secret:      req.Password,
	})
	if err != nil {
		h.respondDomainError(w, r, "register", err)
		return
	}
	w.Header().Set("Location", "/api/v1/accounts/me")
	respondOK(w, http.StatusCreated, "Registration successful", models.RegisterResponse{AccountID: id})
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.ledger.AccountView(r.Context(), principalFrom(r.Context()).AccountID)
	if err != nil {
		h.respondDomainError(w, r, "account view", err)
		return
	}
	respondOK(w, http.StatusOK, "", view)
}

func (h *Handler) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount == "" {
		respondWithError(w, http.StatusBadRequest, "Missing transfer amount")
		return
	}

	balance, err := h.ledger.Transfer(r.Context(), principalFrom(r.Context()).AccountID, req.Recipient, string(req.Amount))
	if err != nil {
		h.respondDomainError(w, r, "transfer", err)
		return
	}
	respondOK(w, http.StatusOK, "Transfer completed", models.TransferResponse{NewBalance: balance.String()})
}

func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.ledger.ChangePassword(r.Context(), principalFrom(r.Context()).AccountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.respondDomainError(w, r, "change password", err)
		return
	}
	respondOK(w, http.StatusOK, "Password updated", nil)
}

func (h *Handler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ledger.DeleteAccount(r.Context(), principalFrom(r.Context()).AccountID, req.Password); err != nil {
		h.respondDomainError(w, r, "delete account", err)
		return
	}
	respondOK(w, http.StatusOK, "Account deleted", nil)
}

func (h *Handler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.SystemStats(r.Context(), principalFrom(r.Context()))
	if err != nil {
		h.respondDomainError(w, r, "system stats", err)
		return
	}
	respondOK(w, http.StatusOK, "", stats)
}
