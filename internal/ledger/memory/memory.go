package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"
)

// Store is an in-memory ledger used by tests and the memory backend.
// All methods copy data out, so callers never observe internal mutation.
type Store struct {
	mu        sync.Mutex
	txns      []core.Transaction
	cats      []core.Category
	accounts  []core.Account
	goals     []core.Goal
	snapshots []core.AnalysisSnapshot
	nextSnap  int64
	now       func() time.Time
}

var (
	_ ledger.Source        = (*Store)(nil)
	_ ledger.SnapshotStore = (*Store)(nil)
)

func New() *Store {
	return &Store{nextSnap: 1, now: time.Now}
}

// SetClock overrides the creation-time source for snapshots. Tests use this
// for deterministic ordering.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) AddTransactions(txns ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = append(s.txns, txns...)
}

func (s *Store) AddCategories(cats ...core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = append(s.cats, cats...)
}

func (s *Store) AddAccounts(accounts ...core.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, accounts...)
}

func (s *Store) AddGoals(goals ...core.Goal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, goals...)
}

func (s *Store) ListSettledTransactions(_ context.Context, userID int64, period core.Period) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID != userID || !t.Settled {
			continue
		}
		if !period.Contains(t.Date) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListCategories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, len(s.cats))
	copy(out, s.cats)
	return out, nil
}

func (s *Store) ListActiveAccounts(_ context.Context, userID int64) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListActiveGoals(_ context.Context, userID int64, asOf time.Time) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID == userID && g.Status == core.GoalActive && !g.EndDate.Before(asOf) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) SaveSnapshot(_ context.Context, snap core.AnalysisSnapshot) (core.AnalysisSnapshot, error) {
	if err := snap.Validate(); err != nil {
		return core.AnalysisSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.ID = s.nextSnap
	s.nextSnap++
	snap.CreatedAt = s.now()
	s.snapshots = append(s.snapshots, snap)
	return snap, nil
}

func (s *Store) RecentSnapshots(_ context.Context, userID int64, limit int) ([]core.AnalysisSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.AnalysisSnapshot
	for _, snap := range s.snapshots {
		if snap.UserID == userID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetSnapshot(_ context.Context, id int64) (core.AnalysisSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.snapshots {
		if snap.ID == id {
			return snap, nil
		}
	}
	return core.AnalysisSnapshot{}, ledger.ErrSnapshotNotFound
}
