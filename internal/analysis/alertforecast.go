package analysis

import (
	"sort"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	spendingForecastDays    = 90
	minSpendingTransactions = 5
	maxCategoryForecasts    = 10
)

// ForecastSpending is the alerting-path forecast: the trailing-90-day
// monthly mean of expenses. Confidence is 100 minus the coefficient of
// variation in percent, clamped to [0,100], fixed at 50 with fewer than
// two monthly buckets. The trend uses the coarse ±10% policy.
//
// This is intentionally a separate strategy from ForecastNextPeriod; the
// two must not be unified.
func ForecastSpending(txns []core.Transaction, cats map[int64]core.Category, period core.Period) SpendingForecast {
	window := filterPeriod(txns, period)

	var expenses []core.Transaction
	for _, t := range window {
		if t.Type == core.Expense {
			expenses = append(expenses, t)
		}
	}

	out := SpendingForecast{PeriodDays: spendingForecastDays}
	if len(expenses) < minSpendingTransactions {
		out.Trend = TrendStable
		out.Message = "insufficient data for forecasting (minimum 5 transactions)"
		return out
	}

	series := MonthlyTotals(expenses, core.Expense)
	values := monthValues(series)
	mean := stats.Mean(values)

	confidence := 50.0
	if len(values) > 1 {
		cvPercent := 100.0
		if mean > 0 {
			cvPercent = stats.SampleStdDev(values) / mean * 100
		}
		confidence = core.ClampConfidence(100 - cvPercent)
	}

	out.ForecastTotal = round2(mean)
	out.Confidence = round2(confidence)
	out.TransactionsAnalyzed = len(expenses)
	out.Trend = coarseTrend(values)
	out.ByCategory = categoryMeans(expenses, cats)
	return out
}

// coarseTrend classifies an ordered monthly series with the ±10% policy.
// Fewer than two points read as stable.
func coarseTrend(values []float64) TrendClass {
	if len(values) < 2 {
		return TrendStable
	}
	_, _, variation := splitVariation(values)
	return CoarseClassifier{}.Classify(variation)
}

// categoryMeans predicts per-category spend as the plain mean of observed
// amounts, sorted descending and capped at ten entries.
func categoryMeans(expenses []core.Transaction, cats map[int64]core.Category) []CategoryMeanForecast {
	amounts := make(map[int64][]float64)
	for _, t := range expenses {
		amounts[t.CategoryID] = append(amounts[t.CategoryID], t.Amount.Value())
	}

	out := make([]CategoryMeanForecast, 0, len(amounts))
	for id, values := range amounts {
		out = append(out, CategoryMeanForecast{
			CategoryID:   id,
			CategoryName: categoryName(cats, id),
			Forecast:     round2(stats.Mean(values)),
			Transactions: len(values),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Forecast != b.Forecast {
			return a.Forecast > b.Forecast
		}
		return a.CategoryID < b.CategoryID
	})
	if len(out) > maxCategoryForecasts {
		out = out[:maxCategoryForecasts]
	}
	return out
}
