package analysis

import (
	"sort"

	"finsight/internal/core"
	"finsight/internal/stats"
)

const (
	minAnomalyTransactions = 10 // overall minimum inside the window
	minAnomalyPerCategory  = 5
	anomalyStdDevFactor    = 2.0
	minTrendPoints         = 2
)

// unknownCategory labels transactions whose category cannot be resolved.
const unknownCategory = "unknown"

// categoryName resolves a category id against the prefetched map, falling
// back to the unknown placeholder instead of failing the analysis.
func categoryName(cats map[int64]core.Category, id int64) string {
	if c, ok := cats[id]; ok {
		return c.Name
	}
	return unknownCategory
}

// BreakdownCategories computes the per-category expense breakdown for the
// window. With no expense transactions the result carries zero totals and
// an empty category list.
func BreakdownCategories(txns []core.Transaction, cats map[int64]core.Category, period core.Period) CategoryBreakdown {
	window := filterPeriod(txns, period)

	out := CategoryBreakdown{Period: period}
	for _, t := range window {
		switch t.Type {
		case core.Expense:
			out.TotalExpense += t.Amount.Value()
		case core.Income:
			out.TotalIncome += t.Amount.Value()
		}
	}

	groups := GroupByCategory(window)
	if len(groups) == 0 {
		out.TotalExpense = round2(out.TotalExpense)
		out.TotalIncome = round2(out.TotalIncome)
		return out
	}

	for id, agg := range groups {
		percent := 0.0
		if out.TotalExpense > 0 {
			percent = agg.Sum / out.TotalExpense * 100
		}
		out.Categories = append(out.Categories, CategorySummary{
			CategoryID:     id,
			Name:           categoryName(cats, id),
			Total:          round2(agg.Sum),
			Mean:           round2(agg.Mean),
			Count:          agg.Count,
			PercentOfTotal: round2(percent),
		})
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		a, b := out.Categories[i], out.Categories[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.CategoryID < b.CategoryID
	})

	out.TotalExpense = round2(out.TotalExpense)
	out.TotalIncome = round2(out.TotalIncome)
	return out
}

// DetectAnomalies flags expense transactions that exceed their category's
// mean by more than two sample standard deviations. Categories with fewer
// than five transactions or with no variance are skipped. The whole
// analysis degrades to an empty report below ten transactions overall.
func DetectAnomalies(txns []core.Transaction, cats map[int64]core.Category, period core.Period) AnomalyReport {
	window := filterPeriod(txns, period)

	out := AnomalyReport{Period: period}
	if len(window) < minAnomalyTransactions {
		out.Message = "insufficient transaction history for anomaly detection"
		return out
	}

	byCategory := make(map[int64][]core.Transaction)
	for _, t := range window {
		if t.Type == core.Expense {
			byCategory[t.CategoryID] = append(byCategory[t.CategoryID], t)
		}
	}

	for id, catTxns := range byCategory {
		if len(catTxns) < minAnomalyPerCategory {
			continue
		}
		amounts := make([]float64, len(catTxns))
		for i, t := range catTxns {
			amounts[i] = t.Amount.Value()
		}
		mean := stats.Mean(amounts)
		stddev := stats.SampleStdDev(amounts)
		if stddev == 0 {
			// No variance, nothing is anomalous.
			continue
		}
		upper := mean + anomalyStdDevFactor*stddev
		for _, t := range catTxns {
			amount := t.Amount.Value()
			if amount <= upper {
				continue
			}
			out.Anomalies = append(out.Anomalies, Anomaly{
				TransactionID:    t.ID,
				Date:             t.Date,
				Amount:           round2(amount),
				CategoryName:     categoryName(cats, id),
				CategoryMean:     round2(mean),
				DeviationPercent: round2((amount - mean) / mean * 100),
				Description:      t.Description,
			})
		}
	}

	sort.Slice(out.Anomalies, func(i, j int) bool {
		a, b := out.Anomalies[i], out.Anomalies[j]
		if a.DeviationPercent != b.DeviationPercent {
			return a.DeviationPercent > b.DeviationPercent
		}
		return a.TransactionID < b.TransactionID
	})
	out.TotalAnomalies = len(out.Anomalies)
	return out
}

// AnalyzeTrends classifies the income and expense monthly series with the
// strict policy. A type with fewer than two monthly points is omitted.
func AnalyzeTrends(txns []core.Transaction, period core.Period) TrendReport {
	window := filterPeriod(txns, period)

	out := TrendReport{Period: period}
	classifier := StrictClassifier{}
	for _, typ := range []core.TransactionType{core.Income, core.Expense} {
		series := MonthlyTotals(window, typ)
		if len(series) < minTrendPoints {
			continue
		}
		early, recent, variation := splitVariation(monthValues(series))
		out.Trends = append(out.Trends, Trend{
			Type:             typ,
			MeanEarly:        round2(early),
			MeanRecent:       round2(recent),
			VariationPercent: round2(variation),
			Classification:   classifier.Classify(variation),
		})
	}
	if len(out.Trends) == 0 {
		out.Message = "insufficient monthly history for trend analysis"
	}
	return out
}
