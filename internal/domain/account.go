package domain

import (
	"fmt"
	"time"
)

// UserAccount is the per-user ledger record: current plan, consumption
// counters and the start of the billing period the period counter belongs to.
type UserAccount struct {
	ID                 string
	Plan               Plan
	LifetimeUsed       int
	PeriodUsed         int
	PeriodResetAt      time.Time
	ExternalBillingRef string // empty until a paid plan was ever activated
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UsageEvent is one accepted increment. Rows are append-only; the
// (UserID, EventID) pair is unique and backs idempotent replay detection.
type UsageEvent struct {
	ID         string
	UserID     string
	EventID    string
	Delta      int
	AppliedAt  time.Time
	Properties []byte
}

// UsageSummary is the wire shape consumers render remaining-quota UI from.
type UsageSummary struct {
	Plan      Plan `json:"plan"`
	Used      int  `json:"used"`
	Quota     int  `json:"quota"`
	Remaining int  `json:"remaining"`
}

// PeriodStart truncates t to the start of its billing period. Periods are
// UTC calendar months; anniversary-aligned billing would change only this
// function and its SQL counterpart.
func PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NeedsPeriodReset reports whether the account sits in an earlier billing
// period than now. Free accounts never reset.
func (a *UserAccount) NeedsPeriodReset(now time.Time) bool {
	if a.Plan.IsFree() {
		return false
	}
	return a.PeriodResetAt.Before(PeriodStart(now))
}

// ApplyPeriodReset rolls the period counter over if the boundary was
// crossed. Returns true when a reset happened.
func (a *UserAccount) ApplyPeriodReset(now time.Time) bool {
	if !a.NeedsPeriodReset(now) {
		return false
	}
	a.PeriodUsed = 0
	a.PeriodResetAt = PeriodStart(now)
	return true
}

// Used returns the counter the plan meters against.
func (a *UserAccount) Used() int {
	if a.Plan.IsFree() {
		return a.LifetimeUsed
	}
	return a.PeriodUsed
}

// Summary computes the entitlement view of the account. Callers must apply
// the period reset first; a mid-period downgrade can leave Used above Quota,
// which reports as Remaining 0.
func (a *UserAccount) Summary() UsageSummary {
	quota := a.Plan.Quota()
	used := a.Used()
	remaining := quota - used
	if remaining < 0 {
		remaining = 0
	}
	return UsageSummary{Plan: a.Plan, Used: used, Quota: quota, Remaining: remaining}
}

// RecordUsage bumps the metered counter by delta, rejecting any increment
// that would push consumption past the quota. Never clamps.
func (a *UserAccount) RecordUsage(delta int) error {
	if delta <= 0 {
		return fmt.Errorf("%w: delta must be positive", ErrInvalidInput)
	}
	if a.Used()+delta > a.Plan.Quota() {
		return ErrQuotaExceeded
	}
	if a.Plan.IsFree() {
		a.LifetimeUsed += delta
	} else {
		a.PeriodUsed += delta
	}
	return nil
}

// Transition moves the account to newPlan following the subscription
// lifecycle rules:
//   - free -> paid starts a fresh period (PeriodUsed 0, PeriodResetAt now's period)
//   - paid -> paid keeps PeriodUsed, now measured against the new quota
//   - paid -> free leaves LifetimeUsed authoritative, never reset
//
// Replaying the same target state is a no-op, so at-least-once webhook
// delivery is safe.
func (a *UserAccount) Transition(newPlan Plan, billingRef string, now time.Time) {
	if a.Plan.IsFree() && !newPlan.IsFree() {
		a.PeriodUsed = 0
		a.PeriodResetAt = PeriodStart(now)
	}
	a.Plan = newPlan
	if billingRef != "" {
		a.ExternalBillingRef = billingRef
	}
}
