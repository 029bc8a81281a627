// ABOUTME: Tests for Intent enumeration helpers
// ABOUTME: Verifies validity, priority order and parsing

package models

import "testing"

func TestIntent_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		want   bool
	}{
		{"kpi_query", IntentKPIQuery, true},
		{"branch_status", IntentBranchStatus, true},
		{"task_query", IntentTaskQuery, true},
		{"event_query", IntentEventQuery, true},
		{"promotion_query", IntentPromotionQuery, true},
		{"chitchat", IntentChitchat, true},
		{"out_of_scope", IntentOutOfScope, true},
		{"unknown", IntentUnknown, true},
		{"empty string", Intent(""), false},
		{"legacy name", Intent("task_management"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.intent.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntent_PriorityOrder(t *testing.T) {
	order := []Intent{
		IntentKPIQuery,
		IntentBranchStatus,
		IntentTaskQuery,
		IntentEventQuery,
		IntentPromotionQuery,
		IntentChitchat,
	}
	for i := 1; i < len(order); i++ {
		if order[i-1].Priority() >= order[i].Priority() {
			t.Errorf("%s should outrank %s", order[i-1], order[i])
		}
	}
	if Intent("bogus").Priority() != len(AllIntents) {
		t.Error("invalid intents should rank last")
	}
}

func TestParseIntent(t *testing.T) {
	got, ok := ParseIntent("  KPI_Query ")
	if !ok || got != IntentKPIQuery {
		t.Errorf("ParseIntent() = %v, %v; want kpi_query, true", got, ok)
	}

	got, ok = ParseIntent("weather")
	if ok || got != IntentUnknown {
		t.Errorf("ParseIntent(weather) = %v, %v; want unknown, false", got, ok)
	}
}

func TestIntent_InDomain(t *testing.T) {
	if !IntentKPIQuery.InDomain() {
		t.Error("kpi_query should be in domain")
	}
	if IntentOutOfScope.InDomain() || IntentUnknown.InDomain() {
		t.Error("out_of_scope and unknown should not be in domain")
	}
}
