package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
)

// Default analysis windows, in days unless noted.
const (
	DefaultBreakdownDays = 30
	DefaultAnomalyDays   = 90
	DefaultTrendMonths   = 6
	DefaultHistoryMonths = 12
)

// EventPublisher receives a notification after a snapshot is persisted.
// Publishing is best effort; a publish failure never fails the analysis.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, snapshotID, userID int64, kind core.AnalysisKind) error
}

// Config tunes the analysis windows and alert thresholds.
type Config struct {
	BreakdownDays         int
	AnomalyDays           int
	TrendMonths           int
	HistoryMonths         int
	BaselineMonthlyIncome float64
}

func (c Config) withDefaults() Config {
	if c.BreakdownDays <= 0 {
		c.BreakdownDays = DefaultBreakdownDays
	}
	if c.AnomalyDays <= 0 {
		c.AnomalyDays = DefaultAnomalyDays
	}
	if c.TrendMonths <= 0 {
		c.TrendMonths = DefaultTrendMonths
	}
	if c.HistoryMonths <= 0 {
		c.HistoryMonths = DefaultHistoryMonths
	}
	if c.BaselineMonthlyIncome <= 0 {
		c.BaselineMonthlyIncome = DefaultBaselineMonthlyIncome
	}
	return c
}

// Service orchestrates one analysis invocation: it fetches a consistent
// snapshot of repository data once, runs the pure analyzers over it,
// persists the result, and publishes a completion event.
type Service struct {
	source ledger.Source
	store  ledger.SnapshotStore
	events EventPublisher
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

// NewService wires an analysis service. events may be nil, in which case
// no completion messages are published.
func NewService(source ledger.Source, store ledger.SnapshotStore, events EventPublisher, cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default("analysis")
	}
	return &Service{
		source: source,
		store:  store,
		events: events,
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the reference-time source. Tests use this to pin the
// analysis windows.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// snapshotData is the repository state one invocation works on, fetched
// once up front so every analyzer sees the same data.
type snapshotData struct {
	txns     []core.Transaction
	cats     map[int64]core.Category
	accounts []core.Account
	goals    []core.Goal
}

// fetch loads the widest window any analyzer needs plus the reference
// data, building the id-to-category map once.
func (s *Service) fetch(ctx context.Context, userID int64, now time.Time) (snapshotData, error) {
	history := core.NewPeriod(now, s.cfg.HistoryMonths*30)

	txns, err := s.source.ListSettledTransactions(ctx, userID, history)
	if err != nil {
		return snapshotData{}, fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.source.ListCategories(ctx, userID)
	if err != nil {
		return snapshotData{}, fmt.Errorf("list categories: %w", err)
	}
	accounts, err := s.source.ListActiveAccounts(ctx, userID)
	if err != nil {
		return snapshotData{}, fmt.Errorf("list accounts: %w", err)
	}
	goals, err := s.source.ListActiveGoals(ctx, userID, now)
	if err != nil {
		return snapshotData{}, fmt.Errorf("list goals: %w", err)
	}

	catMap := make(map[int64]core.Category, len(cats))
	for _, c := range cats {
		catMap[c.ID] = c
	}
	return snapshotData{txns: txns, cats: catMap, accounts: accounts, goals: goals}, nil
}

// Run executes the full pipeline for one user and returns the combined
// report. Sparse history degrades analyzer by analyzer; only repository
// errors propagate.
func (s *Service) Run(ctx context.Context, userID int64) (Report, error) {
	now := s.now()
	data, err := s.fetch(ctx, userID, now)
	if err != nil {
		return Report{}, err
	}
	return s.buildReport(data, now), nil
}

func (s *Service) buildReport(data snapshotData, now time.Time) Report {
	breakdownPeriod := core.NewPeriod(now, s.cfg.BreakdownDays)
	anomalyPeriod := core.NewPeriod(now, s.cfg.AnomalyDays)
	trendPeriod := core.NewPeriod(now, s.cfg.TrendMonths*30)
	historyPeriod := core.NewPeriod(now, s.cfg.HistoryMonths*30)

	r := Report{
		Period:      historyPeriod,
		Breakdown:   BreakdownCategories(data.txns, data.cats, breakdownPeriod),
		Anomalies:   DetectAnomalies(data.txns, data.cats, anomalyPeriod),
		Trends:      AnalyzeTrends(data.txns, trendPeriod),
		Forecast:    ForecastNextPeriod(data.txns, historyPeriod),
		Seasonality: DetectSeasonality(data.txns, historyPeriod),
		Spending:    ForecastSpending(data.txns, data.cats, s.spendingPeriod(now)),
	}
	r.Budget = SuggestBudget(r.Forecast)
	r.Alerts = BuildAlerts(AlertInputs{
		Now:         now,
		MonthToDate: filterPeriod(data.txns, monthToDatePeriod(now)),
		History:     filterPeriod(data.txns, overspendHistoryPeriod(now)),
		Accounts:    data.accounts,
		Goals:       data.goals,
		Spending:    r.Spending,
	}, AlertConfig{BaselineMonthlyIncome: s.cfg.BaselineMonthlyIncome})
	r.Insights = GenerateInsights(r)
	r.Recommendations = GenerateRecommendations(r)
	return r
}

// spendingPeriod is the trailing 90 days up to and excluding today.
func (s *Service) spendingPeriod(now time.Time) core.Period {
	return core.Period{
		Start: now.AddDate(0, 0, -spendingForecastDays),
		End:   now.AddDate(0, 0, -1),
	}
}

// monthToDatePeriod spans the first of the current month through now.
func monthToDatePeriod(now time.Time) core.Period {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return core.Period{Start: start, End: now}
}

// overspendHistoryPeriod is the trailing 90 days excluding the current
// month.
func overspendHistoryPeriod(now time.Time) core.Period {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return core.Period{
		Start: now.AddDate(0, 0, -spendingForecastDays),
		End:   monthStart.AddDate(0, 0, -1),
	}
}

// RunAndPersist runs the pipeline and persists one immutable snapshot of
// the requested kind. A persistence failure is fatal and propagates; the
// completion event is best effort.
func (s *Service) RunAndPersist(ctx context.Context, userID int64, kind core.AnalysisKind) (core.AnalysisSnapshot, error) {
	if !kind.Valid() {
		return core.AnalysisSnapshot{}, core.ErrInvalidKind
	}

	report, err := s.Run(ctx, userID)
	if err != nil {
		return core.AnalysisSnapshot{}, err
	}

	payload, confidence := s.selectPayload(report, kind)
	raw, err := json.Marshal(payload)
	if err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("marshal payload: %w", err)
	}

	snap := core.AnalysisSnapshot{
		UserID:          userID,
		Period:          report.Period,
		Kind:            kind,
		Payload:         raw,
		Insights:        report.Insights,
		Recommendations: report.Recommendations,
		Confidence:      core.ClampConfidence(confidence),
	}
	saved, err := s.store.SaveSnapshot(ctx, snap)
	if err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "Analysis snapshot saved",
		"snapshot_id", saved.ID,
		"user_id", userID,
		"kind", kind,
		"confidence", saved.Confidence)

	if s.events != nil {
		if err := s.events.PublishAnalysisCompleted(ctx, saved.ID, userID, kind); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish analysis event",
				"snapshot_id", saved.ID, "error", err)
			// Snapshot is saved; the event is advisory.
		}
	}
	return saved, nil
}

// selectPayload picks the persisted payload and its confidence for a kind.
// Pattern, anomaly, and trend runs score 100 when their analyzer had
// enough data and 0 otherwise; forecast runs carry the model confidence.
func (s *Service) selectPayload(r Report, kind core.AnalysisKind) (Payload, float64) {
	switch kind {
	case core.KindPattern:
		confidence := 0.0
		if len(r.Breakdown.Categories) > 0 {
			confidence = 100
		}
		return r.Breakdown, confidence
	case core.KindAnomaly:
		confidence := 0.0
		if r.Anomalies.Message == "" {
			confidence = 100
		}
		return r.Anomalies, confidence
	case core.KindTrend:
		confidence := 0.0
		if len(r.Trends.Trends) > 0 {
			confidence = 100
		}
		return r.Trends, confidence
	case core.KindForecast:
		return r.Forecast, r.Forecast.Confidence
	default:
		return r, r.Forecast.Confidence
	}
}

// History returns the most recent snapshots for a user, newest first.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]core.AnalysisSnapshot, error) {
	snaps, err := s.store.RecentSnapshots(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent snapshots: %w", err)
	}
	return snaps, nil
}
