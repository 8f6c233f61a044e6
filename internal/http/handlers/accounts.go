package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ledger/internal/domain"
)

type provisionRequest struct {
	UserID string `json:"user_id"`
}

// AccountProvision is the idempotent creation hook the identity system calls
// when a user registers. Replays return the existing account untouched.
func (a *App) AccountProvision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	userID, ok := a.userID(w, req.UserID)
	if !ok {
		return
	}
	acc, created, err := a.Ledger.Provision(r.Context(), userID)
	if err != nil {
		a.ledgerError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	a.json(w, status, accountPayload(acc))
}

func (a *App) AccountGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, chi.URLParam(r, "user_id"))
	if !ok {
		return
	}
	acc, err := a.Ledger.GetAccount(r.Context(), userID)
	if err != nil {
		a.ledgerError(w, err)
		return
	}
	a.json(w, http.StatusOK, accountPayload(acc))
}

// userID validates the caller-supplied identifier and writes the 400 itself
// when it is malformed.
func (a *App) userID(w http.ResponseWriter, raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id must be a UUID")
		return "", false
	}
	return id.String(), true
}

// ledgerError maps domain errors onto the wire contract.
func (a *App) ledgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "no ledger account for user")
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.error(w, http.StatusPaymentRequired, "quota_exceeded", "plan quota exhausted")
	case errors.Is(err, domain.ErrUnsupportedPlan), errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		a.error(w, http.StatusServiceUnavailable, "store_unavailable", "ledger store unavailable, retry with backoff")
	default:
		a.Logger.Error().Err(err).Msg("ledger operation failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
