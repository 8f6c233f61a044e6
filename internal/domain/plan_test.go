package domain

import "testing"

func TestParsePlan(t *testing.T) {
	cases := []struct {
		in      string
		want    Plan
		wantErr bool
	}{
		{"free", PlanFree, false},
		{"starter", PlanStarter, false},
		{"pro", PlanPro, false},
		{"team", PlanTeam, false},
		{" PRO ", PlanPro, false},
		{"", "", true},
		{"enterprise", "", true},
		{"premium", "", true},
	}
	for _, tc := range cases {
		got, err := ParsePlan(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParsePlan(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePlan(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePlan(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPlanQuotas(t *testing.T) {
	quotas := map[Plan]int{
		PlanFree:    5,
		PlanStarter: 50,
		PlanPro:     350,
		PlanTeam:    2000,
	}
	for plan, want := range quotas {
		if got := plan.Quota(); got != want {
			t.Errorf("%s quota = %d, want %d", plan, got, want)
		}
	}
}

func TestPlanPeriodKind(t *testing.T) {
	if got := PlanFree.PeriodKind(); got != "lifetime" {
		t.Errorf("free period kind = %q, want lifetime", got)
	}
	for _, plan := range []Plan{PlanStarter, PlanPro, PlanTeam} {
		if got := plan.PeriodKind(); got != "month" {
			t.Errorf("%s period kind = %q, want month", plan, got)
		}
	}
}
