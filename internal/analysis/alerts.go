package analysis

import (
	"fmt"
	"time"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	overspendRatio         = 1.2
	overspendHighPercent   = 50.0
	minOverspendHistory    = 5
	goalRiskCapacityFactor = 1.5

	// DefaultBaselineMonthlyIncome is the assumed-income reference used
	// by the goal-at-risk heuristic when no configured value is supplied.
	DefaultBaselineMonthlyIncome = 3000.0
)

// AlertConfig carries the tunable alerting thresholds.
type AlertConfig struct {
	// BaselineMonthlyIncome is the assumed monthly income used to
	// estimate daily saving capacity for goal-at-risk alerts.
	BaselineMonthlyIncome float64
}

// AlertInputs is the prefetched data one alerting pass consumes.
type AlertInputs struct {
	Now time.Time
	// MonthToDate holds settled transactions from the first of the
	// current month through now.
	MonthToDate []core.Transaction
	// History holds settled transactions from the trailing window,
	// excluding the current month.
	History []core.Transaction
	Accounts []core.Account
	Goals    []core.Goal
	Spending SpendingForecast
}

// BuildAlerts runs the three alert rules independently and concatenates
// their results without deduplication.
func BuildAlerts(in AlertInputs, cfg AlertConfig) []Alert {
	if cfg.BaselineMonthlyIncome <= 0 {
		cfg.BaselineMonthlyIncome = DefaultBaselineMonthlyIncome
	}

	var alerts []Alert
	if a, ok := overspendAlert(in.MonthToDate, in.History); ok {
		alerts = append(alerts, a)
	}
	if a, ok := lowBalanceAlert(in.Accounts, in.Spending); ok {
		alerts = append(alerts, a)
	}
	alerts = append(alerts, goalAtRiskAlerts(in.Goals, in.Spending, cfg, in.Now)...)
	return alerts
}

// overspendAlert compares current-month-to-date expense against the
// trailing historical monthly mean. It fires above 1.2x the mean, with
// high severity above 50% excess.
func overspendAlert(monthToDate, history []core.Transaction) (Alert, bool) {
	var historical []core.Transaction
	for _, t := range history {
		if t.Type == core.Expense {
			historical = append(historical, t)
		}
	}
	if len(historical) < minOverspendHistory {
		return Alert{}, false
	}

	series := MonthlyTotals(historical, core.Expense)
	mean := stats.Mean(monthValues(series))
	if mean <= 0 {
		return Alert{}, false
	}

	var current float64
	for _, t := range monthToDate {
		if t.Type == core.Expense {
			current += t.Amount.Value()
		}
	}
	if current <= mean*overspendRatio {
		return Alert{}, false
	}

	excess := (current - mean) / mean * 100
	severity := SeverityMedium
	if excess > overspendHighPercent {
		severity = SeverityHigh
	}
	return Alert{
		Kind:     AlertOverspend,
		Severity: severity,
		Title:    "Spending above average",
		Message: fmt.Sprintf("This month's spending (%.2f) is %.1f%% above your monthly average (%.2f)",
			current, excess, mean),
		CurrentAmount:   round2(current),
		ReferenceAmount: round2(mean),
		ExcessPercent:   round2(excess),
	}, true
}

// lowBalanceAlert fires when the sum of active account balances cannot
// cover the 30-day spending forecast.
func lowBalanceAlert(accounts []core.Account, spending SpendingForecast) (Alert, bool) {
	var balance float64
	for _, a := range accounts {
		balance += a.Balance.Value()
	}
	if balance >= spending.ForecastTotal {
		return Alert{}, false
	}

	deficit := spending.ForecastTotal - balance
	return Alert{
		Kind:     AlertLowBalance,
		Severity: SeverityHigh,
		Title:    "Insufficient balance",
		Message: fmt.Sprintf("Your current balance (%.2f) may not cover forecast spending (%.2f)",
			balance, spending.ForecastTotal),
		Balance:       round2(balance),
		ForecastTotal: spending.ForecastTotal,
		Deficit:       round2(deficit),
	}, true
}

// goalAtRiskAlerts checks each active goal with a future end date. The
// required daily saving is compared against an estimated daily capacity
// derived from the baseline income reference; a goal needing more than
// 1.5x the capacity is flagged.
func goalAtRiskAlerts(goals []core.Goal, spending SpendingForecast, cfg AlertConfig, now time.Time) []Alert {
	capacity := (cfg.BaselineMonthlyIncome - spending.ForecastTotal) / 30
	if capacity < 0 {
		capacity = 0
	}

	var alerts []Alert
	for _, g := range goals {
		days := int(g.EndDate.Sub(now).Hours() / 24)
		if days <= 0 {
			continue
		}
		remaining := g.Target.Value() - g.Current.Value()
		if remaining <= 0 {
			continue
		}
		required := remaining / float64(days)
		if required <= capacity*goalRiskCapacityFactor {
			continue
		}
		alerts = append(alerts, Alert{
			Kind:     AlertGoalAtRisk,
			Severity: SeverityMedium,
			Title:    fmt.Sprintf("Goal %q at risk", g.Name),
			Message: fmt.Sprintf("You need to save %.2f/day to reach this goal, but your estimated capacity is %.2f/day",
				required, capacity),
			GoalID:              g.ID,
			GoalName:            g.Name,
			RemainingAmount:     round2(remaining),
			DaysRemaining:       days,
			RequiredDailySaving: round2(required),
			DailyCapacity:       round2(capacity),
		})
	}
	return alerts
}
