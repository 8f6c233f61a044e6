package domain

import (
	"fmt"
	"strings"
)

// Plan enumerates billing plans.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
	PlanTeam    Plan = "team"
)

// planQuotas is the plan catalog. Free is a lifetime allowance, paid plans
// are per calendar month. Changing a value here is a deploy-time decision.
var planQuotas = map[Plan]int{
	PlanFree:    5,
	PlanStarter: 50,
	PlanPro:     350,
	PlanTeam:    2000,
}

// Plans lists the catalog in display order.
func Plans() []Plan {
	return []Plan{PlanFree, PlanStarter, PlanPro, PlanTeam}
}

// ParsePlan validates a caller-supplied plan identifier.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := planQuotas[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlan, s)
	}
	return p, nil
}

// Quota returns the maximum permitted units for the plan.
func (p Plan) Quota() int {
	return planQuotas[p]
}

// IsFree reports whether the plan is the lifetime-metered free tier.
func (p Plan) IsFree() bool {
	return p == PlanFree
}

// PeriodKind names how the plan's quota is metered.
func (p Plan) PeriodKind() string {
	if p.IsFree() {
		return "lifetime"
	}
	return "month"
}
