package domain

import "context"

// PlanChange is a billing-system lifecycle notification. Exactly one of
// UserID or BillingRef identifies the account; BillingRef alone matches what
// payment processors key their webhooks on.
type PlanChange struct {
	UserID     string
	BillingRef string
	NewPlan    Plan
}

// LedgerRepository defines persistence for the usage ledger. Implementations
// must serialize the check-then-increment sequence per user through the
// store's own locking or constraints, never in-process locks.
type LedgerRepository interface {
	// Provision creates the account with plan=free if it does not exist.
	// The boolean reports whether a row was created.
	Provision(ctx context.Context, userID string) (*UserAccount, bool, error)

	// GetAccount loads the raw ledger record without side effects.
	GetAccount(ctx context.Context, userID string) (*UserAccount, error)

	// GetSummary returns the entitlement summary, lazily rolling the period
	// counter over if the billing-period boundary was crossed.
	GetSummary(ctx context.Context, userID string) (*UsageSummary, error)

	// Increment atomically records one usage event and bumps the metered
	// counter. A replayed eventID returns the current summary unchanged.
	Increment(ctx context.Context, userID, eventID string, delta int, properties []byte) (*UsageSummary, error)

	// ApplyPlanChange applies a subscription lifecycle transition. Idempotent
	// with respect to repeated delivery of the same target state.
	ApplyPlanChange(ctx context.Context, change PlanChange) (*UserAccount, error)
}
