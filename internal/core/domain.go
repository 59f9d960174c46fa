package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
	GoalPaused    GoalStatus = "paused"
)

const (
	KindPattern     AnalysisKind = "pattern"
	KindForecast    AnalysisKind = "forecast"
	KindAnomaly     AnalysisKind = "anomaly"
	KindTrend       AnalysisKind = "trend"
	KindComparative AnalysisKind = "comparative"
)

type (
	TransactionType string
	GoalStatus      string
	AnalysisKind    string

	Money struct {
		Cents int64
	}

	// Period is a closed date interval [Start, End].
	Period struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}

	// Transaction is a single monetary movement. The analysis core reads
	// transactions as immutable input; mutation is owned by the collaborator
	// that manages the ledger.
	Transaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		CategoryID  int64
		Type        TransactionType
		Amount      Money
		Date        time.Time
		Description string
		Settled     bool
	}

	// Category is a read-only lookup used purely for labeling results.
	Category struct {
		ID   int64
		Name string
		Type TransactionType // income or expense
	}

	// Account carries the current balance used for balance-based alerting.
	Account struct {
		ID      int64
		UserID  int64
		Name    string
		Balance Money
		Active  bool
	}

	// Goal is a savings target. Status transitions are owned by an external
	// goal-management collaborator; the analysis core only reads active goals.
	Goal struct {
		ID        int64
		UserID    int64
		Name      string
		Target    Money
		Current   Money
		StartDate time.Time
		EndDate   time.Time
		Status    GoalStatus
	}

	// AnalysisSnapshot is one immutable persisted analysis run. It is created
	// exactly once per run and never mutated or deleted afterwards.
	AnalysisSnapshot struct {
		ID              int64
		UserID          int64
		Period          Period
		Kind            AnalysisKind
		Payload         json.RawMessage
		Insights        []string
		Recommendations []string
		Confidence      float64
		CreatedAt       time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidKind   = errors.New("invalid analysis kind")
	ErrInvalidPeriod = errors.New("period end before start")
	ErrInvalidStatus = errors.New("invalid goal status")
	ErrEmptyName     = errors.New("empty name")
	ErrZeroDate      = errors.New("date cannot be zero")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalCancelled, GoalPaused:
		return true
	}
	return false
}

func (k AnalysisKind) Valid() bool {
	switch k {
	case KindPattern, KindForecast, KindAnomaly, KindTrend, KindComparative:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewPeriod builds a period ending at end and spanning days backwards.
func NewPeriod(end time.Time, days int) Period {
	return Period{Start: end.AddDate(0, 0, -days), End: end}
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrZeroDate
	}
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains reports whether d falls inside the closed interval.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Type != Income && c.Type != Expense {
		return ErrInvalidType
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Target.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !g.Status.Valid() {
		return ErrInvalidStatus
	}
	if g.EndDate.Before(g.StartDate) {
		return ErrInvalidPeriod
	}
	return nil
}

func (s AnalysisSnapshot) Validate() error {
	if !s.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := s.Period.Validate(); err != nil {
		return err
	}
	return nil
}

// ClampConfidence forces a confidence score into [0, 100].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// MonthKey returns the YYYY-MM bucket key for a date.
func MonthKey(d time.Time) string {
	return d.Format("2006-01")
}
