package handlers

import (
	"net/http"

	"ledger/internal/domain"
)

func (a *App) PlansList(w http.ResponseWriter, r *http.Request) {
	items := make([]map[string]any, 0, len(domain.Plans()))
	for _, plan := range domain.Plans() {
		items = append(items, map[string]any{
			"id":     plan,
			"quota":  plan.Quota(),
			"period": plan.PeriodKind(),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
