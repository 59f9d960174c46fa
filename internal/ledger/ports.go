// Package ledger defines the ports the analysis engine consumes.
//
// The engine never owns transaction, category, account, or goal data; an
// external collaborator (SQLite repository, in-memory store) supplies a
// consistent read snapshot through these interfaces.
package ledger

import (
	"context"
	"errors"
	"time"

	"finsight/internal/core"
)

// ErrSnapshotNotFound is returned by Get for an unknown snapshot id.
var ErrSnapshotNotFound = errors.New("analysis snapshot not found")

type (
	// TransactionReader returns settled transactions for a user inside a
	// closed period. Order is unspecified.
	TransactionReader interface {
		ListSettledTransactions(ctx context.Context, userID int64, period core.Period) ([]core.Transaction, error)
	}

	// CategoryReader resolves categories for result labeling.
	CategoryReader interface {
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	}

	// AccountReader returns a user's active accounts with current balances.
	AccountReader interface {
		ListActiveAccounts(ctx context.Context, userID int64) ([]core.Account, error)
	}

	// GoalReader returns active goals whose end date is on or after asOf.
	GoalReader interface {
		ListActiveGoals(ctx context.Context, userID int64, asOf time.Time) ([]core.Goal, error)
	}

	// SnapshotStore persists immutable analysis snapshots. Save assigns the
	// id and creation time; stored snapshots are never mutated or deleted.
	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, s core.AnalysisSnapshot) (core.AnalysisSnapshot, error)
		RecentSnapshots(ctx context.Context, userID int64, limit int) ([]core.AnalysisSnapshot, error)
		GetSnapshot(ctx context.Context, id int64) (core.AnalysisSnapshot, error)
	}

	// Source bundles every read port one analysis invocation needs.
	Source interface {
		TransactionReader
		CategoryReader
		AccountReader
		GoalReader
	}
)
