// Package analysis derives behavioral insight from settled transaction
// history: category breakdowns, anomaly detection, trend classification,
// forecasting, seasonality, alerting, and deterministic insight text.
//
// Every analyzer is a pure function over a prefetched transaction slice
// and an id-to-category map; repository access lives in Service only.
// Identical inputs always recompute identical results.
package analysis

import (
	"math"
	"sort"
	"time"

	"finsight/internal/core"
)

// Aggregate is a sum/mean/count summary of one group of amounts.
type Aggregate struct {
	Sum   float64
	Mean  float64
	Count int
}

// MonthTotal is a YYYY-MM bucket total.
type MonthTotal struct {
	Key   string
	Total float64
}

// GroupByCategory sums expense transactions per category. Non-expense
// transactions are ignored. Empty input yields an empty map.
func GroupByCategory(txns []core.Transaction) map[int64]Aggregate {
	out := make(map[int64]Aggregate)
	for _, t := range txns {
		if t.Type != core.Expense {
			continue
		}
		agg := out[t.CategoryID]
		agg.Sum += t.Amount.Value()
		agg.Count++
		out[t.CategoryID] = agg
	}
	for id, agg := range out {
		agg.Mean = agg.Sum / float64(agg.Count)
		out[id] = agg
	}
	return out
}

// MonthlyTotals sums transactions of one type into YYYY-MM buckets,
// returned in ascending key order. Empty input yields a nil slice.
func MonthlyTotals(txns []core.Transaction, typ core.TransactionType) []MonthTotal {
	buckets := make(map[string]float64)
	for _, t := range txns {
		if t.Type != typ {
			continue
		}
		buckets[core.MonthKey(t.Date)] += t.Amount.Value()
	}
	if len(buckets) == 0 {
		return nil
	}
	out := make([]MonthTotal, 0, len(buckets))
	for key, total := range buckets {
		out = append(out, MonthTotal{Key: key, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// CalendarMonthAmounts collects expense amounts per calendar month (1-12)
// across all years present. Empty input yields an empty map.
func CalendarMonthAmounts(txns []core.Transaction) map[time.Month][]float64 {
	out := make(map[time.Month][]float64)
	for _, t := range txns {
		if t.Type != core.Expense {
			continue
		}
		m := t.Date.Month()
		out[m] = append(out[m], t.Amount.Value())
	}
	return out
}

// filterPeriod keeps transactions whose date falls inside the period.
func filterPeriod(txns []core.Transaction, period core.Period) []core.Transaction {
	var out []core.Transaction
	for _, t := range txns {
		if period.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// monthValues extracts the ordered totals of a monthly series.
func monthValues(series []MonthTotal) []float64 {
	values := make([]float64, len(series))
	for i, m := range series {
		values[i] = m.Total
	}
	return values
}

// round2 rounds to two decimal places, matching the precision of the
// structured results.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
