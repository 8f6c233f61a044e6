package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ledger/internal/domain"
	"ledger/internal/sqlinline"
)

// rowFunc adapts a scan function to pgx.Row. A nil rowFunc scans as no rows.
type rowFunc func(dest ...any) error

func (r rowFunc) Scan(dest ...any) error {
	if r == nil {
		return pgx.ErrNoRows
	}
	return r(dest...)
}

// staticSQL serves one scan function per statement, keyed by the full
// sqlinline constant.
type staticSQL struct {
	rows map[string]func(dest ...any) error
}

func (s *staticSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *staticSQL) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	if scan, ok := s.rows[query]; ok {
		return rowFunc(scan)
	}
	return rowFunc(nil)
}

func (s *staticSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func accountScan(id string, plan string, lifetime, period int, billingRef string) func(dest ...any) error {
	now := time.Date(2026, time.July, 10, 8, 0, 0, 0, time.UTC)
	return func(dest ...any) error {
		*dest[0].(*string) = id
		*dest[1].(*string) = plan
		*dest[2].(*int) = lifetime
		*dest[3].(*int) = period
		*dest[4].(*time.Time) = domain.PeriodStart(now)
		if billingRef == "" {
			*dest[5].(**string) = nil
		} else {
			ref := billingRef
			*dest[5].(**string) = &ref
		}
		*dest[6].(*time.Time) = now
		*dest[7].(*time.Time) = now
		return nil
	}
}

func TestGetSummaryMapsMissingUserToNotFound(t *testing.T) {
	r := NewLedgerRepository(nil, &staticSQL{})

	_, err := r.GetSummary(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetSummaryComputesEntitlement(t *testing.T) {
	sql := &staticSQL{rows: map[string]func(dest ...any) error{
		sqlinline.QAccountSummary: func(dest ...any) error {
			*dest[0].(*string) = "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001"
			*dest[1].(*string) = "starter"
			*dest[2].(*int) = 120
			*dest[3].(*int) = 49
			return nil
		},
	}}
	r := NewLedgerRepository(nil, sql)

	s, err := r.GetSummary(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if err != nil {
		t.Fatal(err)
	}
	if s.Plan != domain.PlanStarter || s.Used != 49 || s.Quota != 50 || s.Remaining != 1 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestGetSummaryClampsOverQuota(t *testing.T) {
	// A mid-period downgrade can leave period_used above the new quota.
	sql := &staticSQL{rows: map[string]func(dest ...any) error{
		sqlinline.QAccountSummary: func(dest ...any) error {
			*dest[0].(*string) = "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001"
			*dest[1].(*string) = "starter"
			*dest[2].(*int) = 90
			*dest[3].(*int) = 90
			return nil
		},
	}}
	r := NewLedgerRepository(nil, sql)

	s, err := r.GetSummary(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if err != nil {
		t.Fatal(err)
	}
	if s.Used != 90 || s.Remaining != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestGetAccountMapsMissingUserToNotFound(t *testing.T) {
	r := NewLedgerRepository(nil, &staticSQL{})

	_, err := r.GetAccount(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetAccountScansBillingRef(t *testing.T) {
	sql := &staticSQL{rows: map[string]func(dest ...any) error{
		sqlinline.QSelectAccount: accountScan("2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001", "pro", 7, 12, "cus_77"),
	}}
	r := NewLedgerRepository(nil, sql)

	acc, err := r.GetAccount(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if err != nil {
		t.Fatal(err)
	}
	if acc.Plan != domain.PlanPro || acc.PeriodUsed != 12 {
		t.Fatalf("account = %+v", acc)
	}
	if acc.ExternalBillingRef != "cus_77" {
		t.Fatalf("billing ref = %q", acc.ExternalBillingRef)
	}
}

func TestScanFailureWrapsStoreUnavailable(t *testing.T) {
	sql := &staticSQL{rows: map[string]func(dest ...any) error{
		sqlinline.QSelectAccount: func(...any) error {
			return errors.New("connection reset")
		},
	}}
	r := NewLedgerRepository(nil, sql)

	_, err := r.GetAccount(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatal("store failure must not read as a missing user")
	}
}

func TestProvisionScansCreatedFlag(t *testing.T) {
	created := true
	sql := &staticSQL{rows: map[string]func(dest ...any) error{
		sqlinline.QProvisionAccount: func(dest ...any) error {
			if err := accountScan("2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001", "free", 0, 0, "")(dest[:8]...); err != nil {
				return err
			}
			*dest[8].(*bool) = created
			return nil
		},
	}}
	r := NewLedgerRepository(nil, sql)

	acc, wasCreated, err := r.Provision(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if err != nil {
		t.Fatal(err)
	}
	if !wasCreated {
		t.Fatal("created flag dropped")
	}
	if acc.Plan != domain.PlanFree || acc.ExternalBillingRef != "" {
		t.Fatalf("account = %+v", acc)
	}

	created = false
	_, wasCreated, err = r.Provision(context.Background(), "2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001")
	if err != nil {
		t.Fatal(err)
	}
	if wasCreated {
		t.Fatal("replayed provision reported created")
	}
}

func TestApplyPlanChangeRequiresIdentifier(t *testing.T) {
	r := NewLedgerRepository(nil, &staticSQL{})

	_, err := r.ApplyPlanChange(context.Background(), domain.PlanChange{NewPlan: domain.PlanPro})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestApplyPlanChangeUnknownBillingRef(t *testing.T) {
	r := NewLedgerRepository(nil, &staticSQL{})

	_, err := r.ApplyPlanChange(context.Background(), domain.PlanChange{
		BillingRef: "cus_ghost",
		NewPlan:    domain.PlanFree,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyPlanChangeByBillingRef(t *testing.T) {
	sql := &staticSQL{rows: map[string]func(dest ...any) error{
		sqlinline.QApplyPlanChangeByBillingRef: accountScan("2b7c9a40-0db0-4f5a-9c1e-51a1fbb1c001", "free", 3, 0, "cus_9"),
	}}
	r := NewLedgerRepository(nil, sql)

	acc, err := r.ApplyPlanChange(context.Background(), domain.PlanChange{
		BillingRef: "cus_9",
		NewPlan:    domain.PlanFree,
	})
	if err != nil {
		t.Fatal(err)
	}
	if acc.Plan != domain.PlanFree || acc.LifetimeUsed != 3 {
		t.Fatalf("account = %+v", acc)
	}
}
