package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger/internal/domain"
	"ledger/internal/infra"
	"ledger/internal/sqlinline"
)

// pgUniqueViolation is the Postgres error code for unique_violation.
const pgUniqueViolation = "23505"

// LedgerRepositoryPG implements domain.LedgerRepository on PostgreSQL.
// Single-statement operations run through the marker-logged SQL runner;
// Increment opens its own transaction because the check-then-increment
// sequence needs a row lock on the account.
type LedgerRepositoryPG struct {
	pool *pgxpool.Pool
	sql  infra.SQLExecutor
}

// NewLedgerRepository constructs a new ledger repository instance.
func NewLedgerRepository(pool *pgxpool.Pool, sql infra.SQLExecutor) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{pool: pool, sql: sql}
}

// Provision creates the account with plan=free when missing. Safe to replay:
// an existing account is returned untouched.
func (r *LedgerRepositoryPG) Provision(ctx context.Context, userID string) (*domain.UserAccount, bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QProvisionAccount, userID)
	var (
		acc        domain.UserAccount
		plan       string
		billingRef *string
		created    bool
	)
	err := row.Scan(&acc.ID, &plan, &acc.LifetimeUsed, &acc.PeriodUsed, &acc.PeriodResetAt, &billingRef, &acc.CreatedAt, &acc.UpdatedAt, &created)
	if err != nil {
		return nil, false, storeErr("provision account", err)
	}
	acc.Plan = domain.Plan(plan)
	if billingRef != nil {
		acc.ExternalBillingRef = *billingRef
	}
	return &acc, created, nil
}

// GetAccount loads the raw ledger record without side effects.
func (r *LedgerRepositoryPG) GetAccount(ctx context.Context, userID string) (*domain.UserAccount, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectAccount, userID)
	return scanAccount(row)
}

// GetSummary computes the entitlement summary. A lapsed billing period is
// rolled over inside the same statement (reset-on-read).
func (r *LedgerRepositoryPG) GetSummary(ctx context.Context, userID string) (*domain.UsageSummary, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QAccountSummary, userID)
	var (
		id   string
		plan string
		acc  domain.UserAccount
	)
	if err := row.Scan(&id, &plan, &acc.LifetimeUsed, &acc.PeriodUsed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("load usage summary", err)
	}
	acc.ID = id
	acc.Plan = domain.Plan(plan)
	s := acc.Summary()
	return &s, nil
}

// Increment records one usage event and bumps the metered counter in a
// single transaction. The SELECT ... FOR UPDATE serializes concurrent
// increments per user; the unique (user_id, event_id) index backstops
// replays that committed before the lock was taken.
func (r *LedgerRepositoryPG) Increment(ctx context.Context, userID, eventID string, delta int, properties []byte) (*domain.UsageSummary, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}
	if delta <= 0 {
		return nil, fmt.Errorf("%w: delta must be positive", domain.ErrInvalidInput)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin increment", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op once committed

	var (
		acc  domain.UserAccount
		plan string
	)
	row := tx.QueryRow(ctx, `
SELECT plan, lifetime_used, period_used, period_reset_at
FROM user_accounts
WHERE id = $1
FOR UPDATE;
`, userID)
	if err := row.Scan(&plan, &acc.LifetimeUsed, &acc.PeriodUsed, &acc.PeriodResetAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("lock account", err)
	}
	acc.ID = userID
	acc.Plan = domain.Plan(plan)

	if acc.ApplyPeriodReset(time.Now()) {
		if _, err := tx.Exec(ctx, `
UPDATE user_accounts
SET period_used = 0, period_reset_at = $2, updated_at = now()
WHERE id = $1;
`, userID, acc.PeriodResetAt); err != nil {
			return nil, storeErr("roll period over", err)
		}
	}

	var replayed bool
	if err := tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM usage_events WHERE user_id = $1 AND event_id = $2);
`, userID, eventID).Scan(&replayed); err != nil {
		return nil, storeErr("check event replay", err)
	}
	if replayed {
		// Idempotent success: the period reset above still counts.
		if err := tx.Commit(ctx); err != nil {
			return nil, storeErr("commit increment", err)
		}
		s := acc.Summary()
		return &s, nil
	}

	if err := acc.RecordUsage(delta); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO usage_events (user_id, event_id, delta, properties)
VALUES ($1, $2, $3, coalesce($4::jsonb, '{}'::jsonb));
`, userID, eventID, delta, properties); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// The event committed between our replay check and the insert.
			// Possible only on retry storms across instances; fold into the
			// idempotent success path.
			_ = tx.Rollback(ctx)
			return r.GetSummary(ctx, userID)
		}
		return nil, storeErr("record usage event", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE user_accounts
SET lifetime_used = $2, period_used = $3, updated_at = now()
WHERE id = $1;
`, userID, acc.LifetimeUsed, acc.PeriodUsed); err != nil {
		return nil, storeErr("bump usage counter", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit increment", err)
	}

	s := acc.Summary()
	return &s, nil
}

// ApplyPlanChange applies a subscription lifecycle transition keyed by user
// id or external billing reference.
func (r *LedgerRepositoryPG) ApplyPlanChange(ctx context.Context, change domain.PlanChange) (*domain.UserAccount, error) {
	var row pgx.Row
	switch {
	case change.UserID != "":
		row = r.sql.QueryRow(ctx, sqlinline.QApplyPlanChange, change.UserID, string(change.NewPlan), change.BillingRef)
	case change.BillingRef != "":
		row = r.sql.QueryRow(ctx, sqlinline.QApplyPlanChangeByBillingRef, change.BillingRef, string(change.NewPlan))
	default:
		return nil, fmt.Errorf("%w: user id or billing ref is required", domain.ErrInvalidInput)
	}
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*domain.UserAccount, error) {
	var (
		acc        domain.UserAccount
		plan       string
		billingRef *string
	)
	err := row.Scan(&acc.ID, &plan, &acc.LifetimeUsed, &acc.PeriodUsed, &acc.PeriodResetAt, &billingRef, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("load account", err)
	}
	acc.Plan = domain.Plan(plan)
	if billingRef != nil {
		acc.ExternalBillingRef = *billingRef
	}
	return &acc, nil
}

// storeErr wraps a backend failure so callers can classify it as retryable.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

var _ domain.LedgerRepository = (*LedgerRepositoryPG)(nil)
