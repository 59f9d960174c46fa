package analysis

import (
	"testing"
	"time"

	"finsight/internal/core"
)

// overspendHistory builds three full months of 1000 spread over six
// transactions, enough history for the overspend rule.
func overspendHistory() []core.Transaction {
	var txns []core.Transaction
	id := int64(1)
	for m := 1; m <= 3; m++ {
		txns = append(txns,
			tx(id, core.Expense, 10, 600, day(2025, time.Month(m), 5)),
			tx(id+1, core.Expense, 10, 400, day(2025, time.Month(m), 20)),
		)
		id += 2
	}
	return txns
}

func TestOverspendAlert(t *testing.T) {
	tests := []struct {
		name         string
		current      float64
		wantFire     bool
		wantSeverity string
	}{
		{"below threshold", 1150, false, ""},
		{"medium excess", 1300, true, SeverityMedium},
		{"high excess", 1600, true, SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monthToDate := []core.Transaction{
				tx(100, core.Expense, 10, tt.current, day(2025, 4, 10)),
			}
			a, ok := overspendAlert(monthToDate, overspendHistory())
			if ok != tt.wantFire {
				t.Fatalf("fired = %v, want %v", ok, tt.wantFire)
			}
			if !ok {
				return
			}
			if a.Severity != tt.wantSeverity {
				t.Errorf("Severity = %s, want %s", a.Severity, tt.wantSeverity)
			}
			if a.ReferenceAmount != 1000 {
				t.Errorf("ReferenceAmount = %v, want 1000", a.ReferenceAmount)
			}
			if a.CurrentAmount != tt.current {
				t.Errorf("CurrentAmount = %v, want %v", a.CurrentAmount, tt.current)
			}
		})
	}
}

func TestOverspendAlertNeedsHistory(t *testing.T) {
	history := []core.Transaction{
		tx(1, core.Expense, 10, 1000, day(2025, 1, 5)),
		tx(2, core.Expense, 10, 1000, day(2025, 2, 5)),
	}
	monthToDate := []core.Transaction{
		tx(100, core.Expense, 10, 9000, day(2025, 4, 10)),
	}
	if _, ok := overspendAlert(monthToDate, history); ok {
		t.Error("fewer than five historical transactions must not fire")
	}
}

func TestLowBalanceAlert(t *testing.T) {
	spending := SpendingForecast{ForecastTotal: 2000}
	accounts := []core.Account{
		{ID: 1, Balance: core.FromValue(800), Active: true},
		{ID: 2, Balance: core.FromValue(700), Active: true},
	}

	a, ok := lowBalanceAlert(accounts, spending)
	if !ok {
		t.Fatal("balance 1500 against forecast 2000 must fire")
	}
	if a.Severity != SeverityHigh {
		t.Errorf("Severity = %s, want high", a.Severity)
	}
	if a.Deficit != 500 {
		t.Errorf("Deficit = %v, want 500", a.Deficit)
	}

	accounts[0].Balance = core.FromValue(1300)
	if _, ok := lowBalanceAlert(accounts, spending); ok {
		t.Error("covered forecast must not fire")
	}
}

func TestGoalAtRiskAlerts(t *testing.T) {
	now := day(2025, 4, 1)
	spending := SpendingForecast{ForecastTotal: 2400}
	cfg := AlertConfig{BaselineMonthlyIncome: 3000}
	// Daily capacity is (3000-2400)/30 = 20.

	goals := []core.Goal{
		{
			ID: 1, Name: "vacation",
			Target:  core.FromValue(2000),
			Current: core.FromValue(1000),
			EndDate: day(2025, 4, 11), // 1000 over 10 days, 100/day needed
			Status:  core.GoalActive,
		},
		{
			ID: 2, Name: "emergency fund",
			Target:  core.FromValue(1030),
			Current: core.FromValue(1000),
			EndDate: day(2025, 4, 11), // 3/day needed, within capacity
			Status:  core.GoalActive,
		},
		{
			ID: 3, Name: "reached",
			Target:  core.FromValue(500),
			Current: core.FromValue(500),
			EndDate: day(2025, 4, 11),
			Status:  core.GoalActive,
		},
		{
			ID: 4, Name: "expired",
			Target:  core.FromValue(2000),
			Current: core.FromValue(0),
			EndDate: day(2025, 3, 1),
			Status:  core.GoalActive,
		},
	}

	alerts := goalAtRiskAlerts(goals, spending, cfg, now)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}
	a := alerts[0]
	if a.GoalID != 1 || a.GoalName != "vacation" {
		t.Errorf("flagged goal = %d %q, want 1 vacation", a.GoalID, a.GoalName)
	}
	if a.RequiredDailySaving != 100 || a.DailyCapacity != 20 {
		t.Errorf("required/capacity = %v/%v, want 100/20", a.RequiredDailySaving, a.DailyCapacity)
	}
	if a.DaysRemaining != 10 {
		t.Errorf("DaysRemaining = %d, want 10", a.DaysRemaining)
	}
	if a.Severity != SeverityMedium {
		t.Errorf("Severity = %s, want medium", a.Severity)
	}
}

func TestGoalAtRiskCapacityFloor(t *testing.T) {
	now := day(2025, 4, 1)
	// Forecast above the baseline clamps capacity to zero, so any positive
	// requirement fires.
	spending := SpendingForecast{ForecastTotal: 5000}
	goals := []core.Goal{
		{
			ID: 1, Name: "anything",
			Target:  core.FromValue(100),
			Current: core.FromValue(90),
			EndDate: day(2025, 5, 1),
			Status:  core.GoalActive,
		},
	}

	alerts := goalAtRiskAlerts(goals, spending, AlertConfig{BaselineMonthlyIncome: 3000}, now)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].DailyCapacity != 0 {
		t.Errorf("DailyCapacity = %v, want clamped 0", alerts[0].DailyCapacity)
	}
}

func TestBuildAlertsDefaultsBaseline(t *testing.T) {
	now := day(2025, 4, 1)
	in := AlertInputs{
		Now:      now,
		Spending: SpendingForecast{ForecastTotal: 2400},
		Goals: []core.Goal{
			{
				ID: 1, Name: "vacation",
				Target:  core.FromValue(2000),
				Current: core.FromValue(1000),
				EndDate: day(2025, 4, 11),
				Status:  core.GoalActive,
			},
		},
	}

	alerts := BuildAlerts(in, AlertConfig{})
	var found bool
	for _, a := range alerts {
		if a.Kind == AlertGoalAtRisk && a.DailyCapacity == 20 {
			found = true
		}
	}
	if !found {
		t.Errorf("zero config must fall back to the default baseline, got %+v", alerts)
	}
}
