package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger/memory"
)

type recordingPublisher struct {
	snapshotIDs []int64
	kinds       []core.AnalysisKind
	err         error
}

func (p *recordingPublisher) PublishAnalysisCompleted(_ context.Context, snapshotID, _ int64, kind core.AnalysisKind) error {
	p.snapshotIDs = append(p.snapshotIDs, snapshotID)
	p.kinds = append(p.kinds, kind)
	return p.err
}

// seededStore builds a memory ledger with a year of activity for user 1:
// steady income, two expense categories, an account, and a goal.
func seededStore(now time.Time) *memory.Store {
	store := memory.New()
	store.AddCategories(
		core.Category{ID: 10, Name: "groceries", Type: core.Expense},
		core.Category{ID: 20, Name: "transport", Type: core.Expense},
		core.Category{ID: 30, Name: "salary", Type: core.Income},
	)
	store.AddAccounts(core.Account{ID: 1, UserID: 1, Name: "checking", Balance: core.FromValue(5000), Active: true})
	store.AddGoals(core.Goal{
		ID: 1, UserID: 1, Name: "vacation",
		Target:  core.FromValue(3000),
		Current: core.FromValue(500),
		EndDate: now.AddDate(0, 2, 0),
		Status:  core.GoalActive,
	})

	id := int64(1)
	for months := 11; months >= 1; months-- {
		base := now.AddDate(0, -months, 0)
		store.AddTransactions(
			core.Transaction{ID: id, UserID: 1, CategoryID: 30, Type: core.Income, Amount: core.FromValue(2500), Date: base, Settled: true},
			core.Transaction{ID: id + 1, UserID: 1, CategoryID: 10, Type: core.Expense, Amount: core.FromValue(420), Date: base.AddDate(0, 0, 2), Settled: true},
			core.Transaction{ID: id + 2, UserID: 1, CategoryID: 10, Type: core.Expense, Amount: core.FromValue(380), Date: base.AddDate(0, 0, 9), Settled: true},
			core.Transaction{ID: id + 3, UserID: 1, CategoryID: 20, Type: core.Expense, Amount: core.FromValue(150), Date: base.AddDate(0, 0, 4), Settled: true},
		)
		id += 4
	}
	// Unsettled and foreign-user rows must never reach the analyzers.
	store.AddTransactions(
		core.Transaction{ID: 900, UserID: 1, CategoryID: 10, Type: core.Expense, Amount: core.FromValue(9999), Date: now.AddDate(0, 0, -3), Settled: false},
		core.Transaction{ID: 901, UserID: 2, CategoryID: 10, Type: core.Expense, Amount: core.FromValue(9999), Date: now.AddDate(0, 0, -3), Settled: true},
	)
	return store
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func TestServiceRunIdempotent(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	svc := NewService(store, store, nil, Config{}, nil)
	svc.SetClock(fixedClock(now))

	first, err := svc.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical inputs must produce byte-identical reports")
	}
}

func TestServiceRunExcludesUnsettledAndForeign(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	svc := NewService(store, store, nil, Config{}, nil)
	svc.SetClock(fixedClock(now))

	report, err := svc.Run(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range report.Anomalies.Anomalies {
		if a.TransactionID == 900 || a.TransactionID == 901 {
			t.Errorf("excluded transaction %d reached the analyzers", a.TransactionID)
		}
	}
	if report.Breakdown.TotalExpense > 2000 {
		t.Errorf("TotalExpense = %v includes excluded rows", report.Breakdown.TotalExpense)
	}
}

func TestRunAndPersistForecast(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	pub := &recordingPublisher{}
	svc := NewService(store, store, pub, Config{}, nil)
	svc.SetClock(fixedClock(now))

	saved, err := svc.RunAndPersist(context.Background(), 1, core.KindForecast)
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == 0 {
		t.Error("persisted snapshot must carry an id")
	}
	if saved.Kind != core.KindForecast {
		t.Errorf("Kind = %s, want forecast", saved.Kind)
	}

	var payload ForecastResult
	if err := json.Unmarshal(saved.Payload, &payload); err != nil {
		t.Fatalf("payload does not decode as a forecast: %v", err)
	}
	if saved.Confidence != payload.Confidence {
		t.Errorf("snapshot confidence %v differs from the model's %v", saved.Confidence, payload.Confidence)
	}
	if len(saved.Insights) == 0 || len(saved.Recommendations) == 0 {
		t.Error("snapshot must carry insights and recommendations")
	}

	if len(pub.snapshotIDs) != 1 || pub.snapshotIDs[0] != saved.ID {
		t.Errorf("published ids = %v, want [%d]", pub.snapshotIDs, saved.ID)
	}
	if pub.kinds[0] != core.KindForecast {
		t.Errorf("published kind = %s, want forecast", pub.kinds[0])
	}
}

func TestRunAndPersistSnapshotImmutable(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	svc := NewService(store, store, nil, Config{}, nil)
	svc.SetClock(fixedClock(now))

	saved, err := svc.RunAndPersist(context.Background(), 1, core.KindAnomaly)
	if err != nil {
		t.Fatal(err)
	}

	fetched, err := store.GetSnapshot(context.Background(), saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fetched.Payload, saved.Payload) {
		t.Error("stored payload must round-trip byte for byte")
	}
}

func TestRunAndPersistInvalidKind(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	svc := NewService(store, store, nil, Config{}, nil)
	svc.SetClock(fixedClock(now))

	_, err := svc.RunAndPersist(context.Background(), 1, core.AnalysisKind("vibes"))
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Errorf("err = %v, want ErrInvalidKind", err)
	}
}

func TestRunAndPersistPublishFailureIsNotFatal(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewService(store, store, pub, Config{}, nil)
	svc.SetClock(fixedClock(now))

	saved, err := svc.RunAndPersist(context.Background(), 1, core.KindPattern)
	if err != nil {
		t.Fatalf("publish failure must not fail the run: %v", err)
	}
	if _, err := store.GetSnapshot(context.Background(), saved.ID); err != nil {
		t.Errorf("snapshot must be saved despite the publish failure: %v", err)
	}
}

func TestRunAndPersistComparativeCarriesFullReport(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	svc := NewService(store, store, nil, Config{}, nil)
	svc.SetClock(fixedClock(now))

	saved, err := svc.RunAndPersist(context.Background(), 1, core.KindComparative)
	if err != nil {
		t.Fatal(err)
	}
	var payload Report
	if err := json.Unmarshal(saved.Payload, &payload); err != nil {
		t.Fatalf("payload does not decode as a full report: %v", err)
	}
	if len(payload.Insights) == 0 {
		t.Error("comparative payload must embed the insights")
	}
}

func TestServiceHistoryNewestFirst(t *testing.T) {
	now := day(2025, 8, 15)
	store := seededStore(now)
	clock := now
	store.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	svc := NewService(store, store, nil, Config{}, nil)
	svc.SetClock(fixedClock(now))

	kinds := []core.AnalysisKind{core.KindPattern, core.KindAnomaly, core.KindTrend}
	for _, k := range kinds {
		if _, err := svc.RunAndPersist(context.Background(), 1, k); err != nil {
			t.Fatal(err)
		}
	}

	snaps, err := svc.History(context.Background(), 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want limit of 2", len(snaps))
	}
	if snaps[0].Kind != core.KindTrend || snaps[1].Kind != core.KindAnomaly {
		t.Errorf("order = %s, %s, want newest first", snaps[0].Kind, snaps[1].Kind)
	}
	if snaps[0].CreatedAt.Before(snaps[1].CreatedAt) {
		t.Error("snapshots must be sorted by creation time descending")
	}
}
