package analysis

import (
	"sort"
	"time"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	minForecastTransactions = 30
	minRegressionPoints     = 3
	trailingMonths          = 3
	sanityDeviationRatio    = 0.5
	sanityConfidencePenalty = 20
	sanityConfidenceFloor   = 30
	budgetMarginPercent     = 10.0
	minSeasonalityMonths    = 3
)

// ForecastNextPeriod predicts next-month total spending from up to a year
// of history.
//
// The decision ladder: fewer than 30 transactions degrades to an explicit
// insufficient-data result; fewer than 3 monthly points falls back to the
// simple mean at fixed confidence 50; otherwise a linear trend is fitted
// and its R² drives confidence. A fitted prediction deviating more than
// 50% from the trailing-3-month mean is replaced by that mean with the
// confidence reduced by 20, floored at 30.
func ForecastNextPeriod(txns []core.Transaction, period core.Period) ForecastResult {
	window := filterPeriod(txns, period)

	if len(window) < minForecastTransactions {
		return ForecastResult{
			Method:  MethodInsufficientData,
			Message: "insufficient transaction history for forecasting",
		}
	}

	series := MonthlyTotals(window, core.Expense)
	if len(series) == 0 {
		return ForecastResult{
			Method:  MethodInsufficientData,
			Message: "no expense history",
		}
	}

	values := monthValues(series)
	if len(series) < minRegressionPoints {
		return ForecastResult{
			ForecastTotal: round2(stats.Mean(values)),
			Confidence:    50,
			Method:        MethodSimpleAverage,
			Message:       "forecast based on simple average",
			Details:       ForecastDetails{MonthsAnalyzed: len(series)},
		}
	}

	slope, intercept := stats.LinearRegression(values)
	forecast := slope*float64(len(values)) + intercept
	confidence := core.ClampConfidence(stats.RSquared(values) * 100)

	trailing := stats.Mean(values[len(values)-trailingMonths:])
	if trailing > 0 && abs(forecast-trailing)/trailing > sanityDeviationRatio {
		forecast = trailing
		confidence -= sanityConfidencePenalty
		if confidence < sanityConfidenceFloor {
			confidence = sanityConfidenceFloor
		}
	}

	direction := TrendFalling
	if slope > 0 {
		direction = TrendRising
	}
	return ForecastResult{
		ForecastTotal: round2(forecast),
		Confidence:    confidence,
		Method:        MethodLinearRegression,
		Message:       "forecast based on linear regression",
		Details: ForecastDetails{
			MonthsAnalyzed: len(series),
			TrendDirection: direction,
			MonthlySlope:   round2(slope),
		},
	}
}

// ForecastCategory predicts next-month spending for a single category as
// the mean of its monthly sums, with confidence tiered on the coefficient
// of variation: below 0.3 scores 70, below 0.5 scores 50, otherwise 30.
// One monthly point forecasts that value at fixed confidence 40.
func ForecastCategory(txns []core.Transaction, period core.Period, categoryID int64) CategoryForecast {
	window := filterPeriod(txns, period)

	var catTxns []core.Transaction
	for _, t := range window {
		if t.Type == core.Expense && t.CategoryID == categoryID {
			catTxns = append(catTxns, t)
		}
	}
	if len(catTxns) == 0 {
		return CategoryForecast{
			CategoryID: categoryID,
			Method:     MethodInsufficientData,
			Message:    "no history for this category",
		}
	}

	series := MonthlyTotals(catTxns, core.Expense)
	if len(series) == 1 {
		return CategoryForecast{
			CategoryID:     categoryID,
			Forecast:       round2(series[0].Total),
			Confidence:     40,
			Method:         MethodSingleMonth,
			Message:        "forecast based on a single month",
			MonthsAnalyzed: 1,
		}
	}

	values := monthValues(series)
	mean := stats.Mean(values)
	stddev := stats.SampleStdDev(values)

	confidence := 30.0
	if mean > 0 {
		switch cv := stddev / mean; {
		case cv < 0.3:
			confidence = 70
		case cv < 0.5:
			confidence = 50
		}
	}
	return CategoryForecast{
		CategoryID:     categoryID,
		Forecast:       round2(mean),
		Confidence:     confidence,
		Method:         MethodHistoricalMean,
		Message:        "forecast based on historical mean",
		MonthsAnalyzed: len(series),
		Mean:           round2(mean),
		StdDev:         round2(stddev),
	}
}

// DetectSeasonality flags calendar months whose average spend lies more
// than one standard deviation from the cross-month mean. At least three
// distinct calendar months must be represented.
func DetectSeasonality(txns []core.Transaction, period core.Period) SeasonalityReport {
	window := filterPeriod(txns, period)

	byMonth := CalendarMonthAmounts(window)
	if len(byMonth) < minSeasonalityMonths {
		return SeasonalityReport{Message: "period too short for seasonality analysis"}
	}

	months := make([]time.Month, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	means := make([]float64, len(months))
	for i, m := range months {
		means[i] = stats.Mean(byMonth[m])
	}
	crossMean := stats.Mean(means)
	crossStdDev := stats.SampleStdDev(means)

	out := SeasonalityReport{CrossMean: round2(crossMean)}
	for i, m := range months {
		entry := MonthAverage{Month: m, Name: m.String(), AverageSpend: round2(means[i])}
		switch {
		case means[i] > crossMean+crossStdDev:
			out.HighMonths = append(out.HighMonths, entry)
		case means[i] < crossMean-crossStdDev:
			out.LowMonths = append(out.LowMonths, entry)
		}
	}
	out.Detected = len(out.HighMonths) > 0 || len(out.LowMonths) > 0
	return out
}

// SuggestBudget adds a fixed 10% safety margin on top of a forecast,
// propagating its confidence unchanged.
func SuggestBudget(forecast ForecastResult) BudgetSuggestion {
	if forecast.ForecastTotal == 0 {
		return BudgetSuggestion{Message: "insufficient data for a budget suggestion"}
	}
	return BudgetSuggestion{
		SuggestedBudget: round2(forecast.ForecastTotal * (1 + budgetMarginPercent/100)),
		BaseForecast:    forecast.ForecastTotal,
		MarginPercent:   budgetMarginPercent,
		Confidence:      forecast.Confidence,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
