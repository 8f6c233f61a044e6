package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
)

func doPlanChange(app *App, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/v1/billing/plan-changes", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	app.PlanChange(rr, req)
	return rr
}

func decodeAccount(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return payload
}

func TestPlanChangeUpgrade(t *testing.T) {
	app, _, userID := newTestApp(t)

	body := fmt.Sprintf(`{"user_id":%q,"new_plan":"pro","external_billing_ref":"cus_123"}`, userID)
	rr := doPlanChange(app, body)
	if rr.Code != 200 {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	acc := decodeAccount(t, rr)
	if acc["plan"] != "pro" {
		t.Fatalf("plan = %v", acc["plan"])
	}
	if acc["external_billing_ref"] != "cus_123" {
		t.Fatalf("billing ref = %v", acc["external_billing_ref"])
	}

	s := decodeSummary(t, doSummary(app, userID))
	if s.Quota != 350 || s.Used != 0 {
		t.Fatalf("summary after upgrade = %+v", s)
	}
}

func TestPlanChangeByBillingRef(t *testing.T) {
	app, _, userID := newTestApp(t)

	rr := doPlanChange(app, fmt.Sprintf(`{"user_id":%q,"new_plan":"team","external_billing_ref":"cus_9"}`, userID))
	if rr.Code != 200 {
		t.Fatalf("upgrade status = %d", rr.Code)
	}

	// Cancellation webhooks only know the billing customer id.
	rr = doPlanChange(app, `{"external_billing_ref":"cus_9","new_plan":"free"}`)
	if rr.Code != 200 {
		t.Fatalf("cancel status = %d, body %s", rr.Code, rr.Body.String())
	}
	if acc := decodeAccount(t, rr); acc["plan"] != "free" {
		t.Fatalf("plan = %v", acc["plan"])
	}
}

func TestPlanChangeReplayedCancellation(t *testing.T) {
	app, _, userID := newTestApp(t)

	doPlanChange(app, fmt.Sprintf(`{"user_id":%q,"new_plan":"starter","external_billing_ref":"cus_1"}`, userID))
	first := doPlanChange(app, `{"external_billing_ref":"cus_1","new_plan":"free"}`)
	second := doPlanChange(app, `{"external_billing_ref":"cus_1","new_plan":"free"}`)
	if first.Code != 200 || second.Code != 200 {
		t.Fatalf("codes = %d / %d", first.Code, second.Code)
	}
	a := decodeAccount(t, first)
	b := decodeAccount(t, second)
	if a["plan"] != b["plan"] || a["lifetime_used"] != b["lifetime_used"] || a["period_used"] != b["period_used"] {
		t.Fatalf("replay diverged: %v vs %v", a, b)
	}
}

func TestPlanChangeValidation(t *testing.T) {
	app, _, userID := newTestApp(t)

	cases := []struct {
		name string
		body string
	}{
		{"unknown plan", fmt.Sprintf(`{"user_id":%q,"new_plan":"platinum"}`, userID)},
		{"empty plan", fmt.Sprintf(`{"user_id":%q}`, userID)},
		{"no identifiers", `{"new_plan":"pro"}`},
		{"malformed user id", `{"user_id":"abc","new_plan":"pro"}`},
		{"garbage payload", `{`},
	}
	for _, tc := range cases {
		rr := doPlanChange(app, tc.body)
		if rr.Code != 400 {
			t.Errorf("%s: status = %d, want 400", tc.name, rr.Code)
		}
	}
}

func TestPlanChangeUnknownUser(t *testing.T) {
	app, _, _ := newTestApp(t)

	rr := doPlanChange(app, `{"user_id":"1e8e8c1f-8a8e-4f22-9f6b-7a2f6f1d9b11","new_plan":"pro"}`)
	if rr.Code != 404 {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
