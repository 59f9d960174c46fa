package analysis

import (
	"fmt"
	"strings"

	"finsight/internal/core"
)

const (
	concentrationPercent  = 40.0
	reductionPercent      = 30.0
	reductionSavingsShare = 0.10
	praiseSavingsRate     = 20.0
	minimumSavingsRate    = 10.0
	topCategoryCount      = 3
)

// GenerateInsights maps the combined analyzer outputs to ordered
// human-readable observations. The function is deterministic: no
// randomness, no hidden state, identical bundles produce identical text.
func GenerateInsights(r Report) []string {
	var insights []string

	if len(r.Breakdown.Categories) > 0 {
		top := r.Breakdown.Categories[0]
		insights = append(insights, fmt.Sprintf(
			"Your largest expense is %s, representing %.1f%% of the total.",
			top.Name, top.PercentOfTotal))
		if top.PercentOfTotal > concentrationPercent {
			insights = append(insights, fmt.Sprintf(
				"Warning: %s is consuming more than 40%% of your budget. Consider reviewing this spending.",
				top.Name))
		}
	}

	if r.Breakdown.TotalExpense > 0 && r.Breakdown.TotalIncome > 0 {
		rate := savingsRate(r.Breakdown)
		if rate > praiseSavingsRate {
			insights = append(insights, fmt.Sprintf(
				"Well done! You are saving %.1f%% of your income. Keep it up.", rate))
		} else if rate < 0 {
			insights = append(insights,
				"Warning: your expenses exceed your income. Review your budget to avoid debt.")
		}
	}

	if r.Anomalies.TotalAnomalies > 0 {
		insights = append(insights, fmt.Sprintf(
			"Detected %d transactions above their usual range. Check whether these were expected.",
			r.Anomalies.TotalAnomalies))
	}

	for _, trend := range r.Trends.Trends {
		if trend.Type == core.Expense && trend.Classification == TrendRising {
			insights = append(insights, fmt.Sprintf(
				"Your expenses are trending up (%.1f%%). Keep an eye on your budget.",
				trend.VariationPercent))
		}
	}

	insights = append(insights, forecastInsights(r.Forecast, r.Spending)...)
	return insights
}

// forecastInsights covers the forecast-specific observations.
func forecastInsights(forecast ForecastResult, spending SpendingForecast) []string {
	var insights []string

	if spending.Confidence < 50 {
		insights = append(insights,
			"Not enough history for a precise forecast yet. Keep recording your transactions.")
	} else {
		insights = append(insights, fmt.Sprintf(
			"Based on %d transactions, we forecast spending of %.2f over the next 30 days.",
			spending.TransactionsAnalyzed, spending.ForecastTotal))
	}

	switch spending.Trend {
	case TrendRising:
		insights = append(insights, "Your spending is on a rising trend.")
	case TrendFalling:
		insights = append(insights, "Good news: your spending is decreasing.")
	}

	if len(spending.ByCategory) > 0 {
		n := len(spending.ByCategory)
		if n > topCategoryCount {
			n = topCategoryCount
		}
		names := make([]string, n)
		for i := range names {
			names[i] = spending.ByCategory[i].CategoryName
		}
		insights = append(insights, fmt.Sprintf(
			"Your largest forecast expenses: %s", strings.Join(names, ", ")))
	}
	return insights
}

// GenerateRecommendations maps the bundle to ordered actionable advice.
func GenerateRecommendations(r Report) []string {
	var recs []string

	if r.Breakdown.TotalExpense > 0 {
		top := r.Breakdown.Categories
		if len(top) > topCategoryCount {
			top = top[:topCategoryCount]
		}
		for _, cat := range top {
			if cat.PercentOfTotal > reductionPercent {
				recs = append(recs, fmt.Sprintf(
					"Try cutting spending on %s by 10-15%%. That could save about %.2f per month.",
					cat.Name, cat.Total*reductionSavingsShare))
			}
		}
	}

	if r.Breakdown.TotalIncome > 0 && savingsRate(r.Breakdown) < minimumSavingsRate {
		recs = append(recs,
			"Aim to save at least 10% of your monthly income. Start with small daily savings.")
	}

	for _, alert := range r.Alerts {
		switch alert.Kind {
		case AlertOverspend:
			recs = append(recs, "Review your recent spending and identify non-essential expenses.")
		case AlertLowBalance:
			recs = append(recs, "Consider cutting non-essential spending or finding extra income.")
		case AlertGoalAtRisk:
			recs = append(recs, fmt.Sprintf(
				"Reassess the goal %q or increase your monthly savings.", alert.GoalName))
		}
	}

	recs = append(recs,
		"Set clear financial goals and review your progress every month.",
		"Review recurring charges and cancel subscriptions you no longer use.")
	return recs
}

// savingsRate is (income - expense) / income x 100.
func savingsRate(b CategoryBreakdown) float64 {
	if b.TotalIncome == 0 {
		return 0
	}
	return (b.TotalIncome - b.TotalExpense) / b.TotalIncome * 100
}
