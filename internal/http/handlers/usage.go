package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ledger/internal/middleware"
)

// Callers derive event ids from job identifiers; anything longer signals a
// misuse of the idempotency key.
const maxEventIDLength = 200

type incrementRequest struct {
	EventID    string          `json:"event_id"`
	Delta      *int            `json:"delta"`
	Properties json.RawMessage `json:"properties"`
}

func (a *App) UsageSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, chi.URLParam(r, "user_id"))
	if !ok {
		return
	}
	summary, err := a.Ledger.GetSummary(r.Context(), userID)
	if err != nil {
		a.ledgerError(w, err)
		return
	}
	a.json(w, http.StatusOK, summary)
}

func (a *App) UsageIncrement(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, chi.URLParam(r, "user_id"))
	if !ok {
		return
	}
	var req incrementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.EventID == "" || len(req.EventID) > maxEventIDLength {
		a.error(w, http.StatusBadRequest, "bad_request", "event_id is required and must be at most 200 characters")
		return
	}
	// An omitted delta defaults to one; an explicit zero or negative is a
	// caller bug, not a default.
	delta := 1
	if req.Delta != nil {
		delta = *req.Delta
	}
	if delta <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "delta must be positive")
		return
	}
	props := map[string]any{}
	if len(req.Properties) > 0 {
		if err := json.Unmarshal(req.Properties, &props); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "properties must be a JSON object")
			return
		}
		if props == nil {
			props = map[string]any{}
		}
	}

	summary, err := a.Ledger.Increment(r.Context(), userID, req.EventID, delta, a.auditProperties(r, props))
	if err != nil {
		a.ledgerError(w, err)
		return
	}
	a.json(w, http.StatusOK, summary)
}

// auditProperties annotates caller-supplied properties with request metadata
// (request id and, when the geoip database is loaded, origin country).
func (a *App) auditProperties(r *http.Request, props map[string]any) []byte {
	if rid := middleware.RequestIDFromContext(r.Context()); rid != "" {
		props["request_id"] = rid
	}
	if a.GeoIP != nil {
		if country, err := a.GeoIP.CountryCode(middleware.ClientIP(r)); err == nil && country != "" {
			props["country"] = country
		}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return nil
	}
	return raw
}
