package handlers

import (
	"net/http"

	"ledger/internal/sqlinline"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary)
	var totalAccounts, freeAccounts, paidAccounts, eventsRecorded, unitsRecorded, units24 int64
	if err := row.Scan(&totalAccounts, &freeAccounts, &paidAccounts, &eventsRecorded, &unitsRecorded, &units24); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"total_accounts":  totalAccounts,
		"free_accounts":   freeAccounts,
		"paid_accounts":   paidAccounts,
		"events_recorded": eventsRecorded,
		"units_recorded":  unitsRecorded,
		"units_last_24h":  units24,
	})
}
