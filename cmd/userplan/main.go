// userplan is an operator CLI applying a plan change directly, for support
// cases where the billing webhook was missed or a comp plan is granted.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"ledger/internal/adapter/repo"
	"ledger/internal/domain"
	"ledger/internal/infra"
)

func main() {
	var (
		idFlag         string
		billingRefFlag string
		planFlag       string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&billingRefFlag, "billing-ref", "", "external billing reference to match instead of -id")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (free, starter, pro, team)")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	billingRef := strings.TrimSpace(billingRefFlag)

	if userID == "" && billingRef == "" {
		exitWithError(errors.New("either -id or -billing-ref must be provided"))
	}
	plan, err := domain.ParsePlan(planFlag)
	if err != nil {
		exitWithError(err)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	ledger := repo.NewLedgerRepository(pool, runner)

	acc, err := ledger.ApplyPlanChange(ctx, domain.PlanChange{
		UserID:     userID,
		BillingRef: billingRef,
		NewPlan:    plan,
	})
	if err != nil {
		exitWithError(err)
	}

	out, _ := json.MarshalIndent(map[string]any{
		"user_id":              acc.ID,
		"plan":                 acc.Plan,
		"lifetime_used":        acc.LifetimeUsed,
		"period_used":          acc.PeriodUsed,
		"period_reset_at":      acc.PeriodResetAt,
		"external_billing_ref": acc.ExternalBillingRef,
	}, "", "  ")
	fmt.Println(string(out))
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "userplan: %v\n", err)
	os.Exit(1)
}
