package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ledger/internal/http/handlers"
	"ledger/internal/middleware"
)

// NewRouter wires the wire contract onto the handler container. The rate
// limiter is provisioned here so its state lives and dies with the router.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	limiter := middleware.NewRateLimiter(app.Config.RateLimitPerMin, time.Minute)

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
		limiter.Handler,
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/plans", app.PlansList)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ServiceAuth(app.Config.ServiceToken))

		r.Route("/v1/accounts", func(r chi.Router) {
			r.Post("/", app.AccountProvision)
			r.Get("/{user_id}", app.AccountGet)
			r.Get("/{user_id}/usage", app.UsageSummary)
			r.Post("/{user_id}/usage", app.UsageIncrement)
		})

		r.Post("/v1/billing/plan-changes", app.PlanChange)
		r.Get("/v1/stats/summary", app.StatsSummary)
	})

	return r
}
