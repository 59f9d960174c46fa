package analysis

import (
	"testing"
	"time"

	"finsight/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(id int64, typ core.TransactionType, catID int64, amount float64, date time.Time) core.Transaction {
	return core.Transaction{
		ID:         id,
		UserID:     1,
		AccountID:  1,
		CategoryID: catID,
		Type:       typ,
		Amount:     core.FromValue(amount),
		Date:       date,
		Settled:    true,
	}
}

func TestGroupByCategory(t *testing.T) {
	txns := []core.Transaction{
		tx(1, core.Expense, 10, 100, day(2025, 3, 1)),
		tx(2, core.Expense, 10, 200, day(2025, 3, 2)),
		tx(3, core.Expense, 20, 50, day(2025, 3, 3)),
		tx(4, core.Income, 10, 999, day(2025, 3, 4)),
		tx(5, core.Transfer, 10, 999, day(2025, 3, 5)),
	}

	groups := GroupByCategory(txns)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if g := groups[10]; g.Sum != 300 || g.Mean != 150 || g.Count != 2 {
		t.Errorf("category 10 = %+v, want sum 300 mean 150 count 2", g)
	}
	if g := groups[20]; g.Sum != 50 || g.Count != 1 {
		t.Errorf("category 20 = %+v, want sum 50 count 1", g)
	}
}

func TestGroupByCategoryEmpty(t *testing.T) {
	if groups := GroupByCategory(nil); len(groups) != 0 {
		t.Errorf("empty input must yield empty map, got %v", groups)
	}
}

func TestMonthlyTotals(t *testing.T) {
	txns := []core.Transaction{
		tx(1, core.Expense, 1, 100, day(2025, 2, 10)),
		tx(2, core.Expense, 1, 50, day(2025, 1, 5)),
		tx(3, core.Expense, 1, 25, day(2025, 2, 20)),
		tx(4, core.Income, 1, 500, day(2025, 1, 15)),
	}

	series := MonthlyTotals(txns, core.Expense)
	if len(series) != 2 {
		t.Fatalf("got %d buckets, want 2", len(series))
	}
	if series[0].Key != "2025-01" || series[0].Total != 50 {
		t.Errorf("first bucket = %+v, want 2025-01 / 50", series[0])
	}
	if series[1].Key != "2025-02" || series[1].Total != 125 {
		t.Errorf("second bucket = %+v, want 2025-02 / 125", series[1])
	}

	income := MonthlyTotals(txns, core.Income)
	if len(income) != 1 || income[0].Total != 500 {
		t.Errorf("income series = %+v, want one bucket of 500", income)
	}

	if empty := MonthlyTotals(nil, core.Expense); empty != nil {
		t.Errorf("empty input must yield nil series, got %v", empty)
	}
}

func TestCalendarMonthAmounts(t *testing.T) {
	txns := []core.Transaction{
		tx(1, core.Expense, 1, 100, day(2024, 12, 10)),
		tx(2, core.Expense, 1, 200, day(2025, 12, 5)),
		tx(3, core.Expense, 1, 50, day(2025, 3, 1)),
		tx(4, core.Income, 1, 999, day(2025, 3, 2)),
	}

	byMonth := CalendarMonthAmounts(txns)
	if len(byMonth) != 2 {
		t.Fatalf("got %d calendar months, want 2", len(byMonth))
	}
	if got := byMonth[time.December]; len(got) != 2 {
		t.Errorf("December amounts = %v, want two entries across years", got)
	}
	if got := byMonth[time.March]; len(got) != 1 || got[0] != 50 {
		t.Errorf("March amounts = %v, want [50]", got)
	}
}
