package handlers

import (
	"encoding/json"
	"net/http"

	"ledger/internal/domain"
	"ledger/internal/infra"
	"ledger/internal/infra/geoip"
)

// App is the handler container. Ledger operations go through the repository;
// operational reads (stats, health) use the marker-logged SQL executor
// directly.
type App struct {
	Config *infra.Config
	Logger infra.Logger
	SQL    infra.SQLExecutor
	Ledger domain.LedgerRepository
	GeoIP  geoip.CountryResolver
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// accountPayload is the wire shape of a ledger account.
func accountPayload(acc *domain.UserAccount) map[string]any {
	payload := map[string]any{
		"user_id":         acc.ID,
		"plan":            acc.Plan,
		"lifetime_used":   acc.LifetimeUsed,
		"period_used":     acc.PeriodUsed,
		"period_reset_at": acc.PeriodResetAt,
		"created_at":      acc.CreatedAt,
		"updated_at":      acc.UpdatedAt,
	}
	if acc.ExternalBillingRef != "" {
		payload["external_billing_ref"] = acc.ExternalBillingRef
	}
	return payload
}
