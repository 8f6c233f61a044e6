package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"ledger/internal/domain"
)

type planChangeRequest struct {
	UserID             string `json:"user_id"`
	NewPlan            string `json:"new_plan"`
	ExternalBillingRef string `json:"external_billing_ref"`
}

// PlanChange ingests subscription lifecycle notifications relayed from the
// billing system. Delivery is at least once; the underlying transition is
// idempotent, so replays return the same resulting account.
func (a *App) PlanChange(w http.ResponseWriter, r *http.Request) {
	var req planChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	plan, err := domain.ParsePlan(req.NewPlan)
	if err != nil {
		a.error(w, http.StatusBadRequest, "unsupported_plan", "new_plan must be one of free, starter, pro, team")
		return
	}
	if req.UserID == "" && req.ExternalBillingRef == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id or external_billing_ref is required")
		return
	}
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "user_id must be a UUID")
			return
		}
		req.UserID = id.String()
	}

	acc, err := a.Ledger.ApplyPlanChange(r.Context(), domain.PlanChange{
		UserID:     req.UserID,
		BillingRef: req.ExternalBillingRef,
		NewPlan:    plan,
	})
	if err != nil {
		a.ledgerError(w, err)
		return
	}
	a.Logger.Info().
		Str("user_id", acc.ID).
		Str("plan", string(acc.Plan)).
		Msg("plan change applied")
	a.json(w, http.StatusOK, accountPayload(acc))
}
