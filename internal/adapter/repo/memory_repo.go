package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger/internal/domain"
)

// MemoryLedger is an in-memory domain.LedgerRepository for tests and local
// development. All state hangs off the instance and is guarded by one mutex,
// which stands in for the row lock the Postgres implementation takes.
type MemoryLedger struct {
	mu       sync.Mutex
	clock    func() time.Time
	accounts map[string]*domain.UserAccount
	events   map[string]map[string]int // userID -> eventID -> delta
}

// NewMemoryLedger returns an empty ledger using the wall clock.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		clock:    time.Now,
		accounts: make(map[string]*domain.UserAccount),
		events:   make(map[string]map[string]int),
	}
}

// SetClock overrides the time source. Tests use it to cross period boundaries.
func (m *MemoryLedger) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func (m *MemoryLedger) Provision(_ context.Context, userID string) (*domain.UserAccount, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if acc, ok := m.accounts[userID]; ok {
		clone := *acc
		return &clone, false, nil
	}
	now := m.clock()
	acc := &domain.UserAccount{
		ID:            userID,
		Plan:          domain.PlanFree,
		PeriodResetAt: domain.PeriodStart(now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.accounts[userID] = acc
	m.events[userID] = make(map[string]int)
	clone := *acc
	return &clone, true, nil
}

func (m *MemoryLedger) GetAccount(_ context.Context, userID string) (*domain.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *acc
	return &clone, nil
}

func (m *MemoryLedger) GetSummary(_ context.Context, userID string) (*domain.UsageSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	acc.ApplyPeriodReset(m.clock())
	s := acc.Summary()
	return &s, nil
}

func (m *MemoryLedger) Increment(_ context.Context, userID, eventID string, delta int, _ []byte) (*domain.UsageSummary, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", domain.ErrInvalidInput)
	}
	if delta <= 0 {
		return nil, fmt.Errorf("%w: delta must be positive", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	acc.ApplyPeriodReset(m.clock())

	if _, seen := m.events[userID][eventID]; seen {
		s := acc.Summary()
		return &s, nil
	}
	if err := acc.RecordUsage(delta); err != nil {
		return nil, err
	}
	m.events[userID][eventID] = delta
	acc.UpdatedAt = m.clock()
	s := acc.Summary()
	return &s, nil
}

func (m *MemoryLedger) ApplyPlanChange(_ context.Context, change domain.PlanChange) (*domain.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var acc *domain.UserAccount
	switch {
	case change.UserID != "":
		acc = m.accounts[change.UserID]
	case change.BillingRef != "":
		for _, candidate := range m.accounts {
			if candidate.ExternalBillingRef == change.BillingRef {
				acc = candidate
				break
			}
		}
	default:
		return nil, fmt.Errorf("%w: user id or billing ref is required", domain.ErrInvalidInput)
	}
	if acc == nil {
		return nil, domain.ErrNotFound
	}

	acc.Transition(change.NewPlan, change.BillingRef, m.clock())
	acc.UpdatedAt = m.clock()
	clone := *acc
	return &clone, nil
}

// EventCount reports how many usage events were accepted for the user.
// Test helper; the SQL implementation exposes this through stats queries.
func (m *MemoryLedger) EventCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events[userID])
}

var _ domain.LedgerRepository = (*MemoryLedger)(nil)
