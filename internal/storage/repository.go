package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"

	_ "modernc.org/sqlite"
)

// dateFormat is how dates are stored; lexicographic order matches
// chronological order, which the range queries rely on.
const dateFormat = time.RFC3339

// SQLiteRepository implements ledger.Source and ledger.SnapshotStore on a
// local SQLite database.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

var (
	_ ledger.Source        = (*SQLiteRepository)(nil)
	_ ledger.SnapshotStore = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Default("storage")
	}
	return &SQLiteRepository{db: db, logger: logger, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListSettledTransactions(ctx context.Context, userID int64, period core.Period) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, account_id, category_id, type, amount_cents, date, description, settled
		FROM transactions
		WHERE user_id = ? AND settled = 1 AND date >= ? AND date <= ?
		ORDER BY date, id`,
		userID, period.Start.Format(dateFormat), period.End.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t       core.Transaction
			typ     string
			date    string
			settled int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &typ,
			&t.Amount.Cents, &date, &t.Description, &settled); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Settled = settled != 0
		if t.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("parse transaction date: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c   core.Category
			typ string
		)
		if err := rows.Scan(&c.ID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListActiveAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, balance_cents, active
		FROM accounts
		WHERE user_id = ? AND active = 1
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var (
			a      core.Account
			active int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance.Cents, &active); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Active = active != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListActiveGoals(ctx context.Context, userID int64, asOf time.Time) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_cents, current_cents, start_date, end_date, status
		FROM goals
		WHERE user_id = ? AND status = 'active' AND end_date >= ?
		ORDER BY id`, userID, asOf.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g          core.Goal
			status     string
			start, end string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Current.Cents,
			&start, &end, &status); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.Status = core.GoalStatus(status)
		if g.StartDate, err = time.Parse(dateFormat, start); err != nil {
			return nil, fmt.Errorf("parse goal start date: %w", err)
		}
		if g.EndDate, err = time.Parse(dateFormat, end); err != nil {
			return nil, fmt.Errorf("parse goal end date: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SaveSnapshot inserts one immutable snapshot row. There is deliberately no
// update or delete counterpart.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, snap core.AnalysisSnapshot) (core.AnalysisSnapshot, error) {
	if err := snap.Validate(); err != nil {
		return core.AnalysisSnapshot{}, err
	}

	insights, err := json.Marshal(stringsOrEmpty(snap.Insights))
	if err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("marshal insights: %w", err)
	}
	recommendations, err := json.Marshal(stringsOrEmpty(snap.Recommendations))
	if err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("marshal recommendations: %w", err)
	}

	snap.CreatedAt = r.now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_snapshots
			(user_id, kind, period_start, period_end, payload, insights, recommendations, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.UserID, string(snap.Kind),
		snap.Period.Start.Format(dateFormat), snap.Period.End.Format(dateFormat),
		string(snap.Payload), string(insights), string(recommendations),
		snap.Confidence, snap.CreatedAt.Format(dateFormat))
	if err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	snap.ID, err = res.LastInsertId()
	if err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("snapshot id: %w", err)
	}

	r.logger.InfoContext(ctx, "Snapshot saved to SQLite",
		"id", snap.ID,
		"user_id", snap.UserID,
		"kind", snap.Kind)
	return snap, nil
}

func (r *SQLiteRepository) RecentSnapshots(ctx context.Context, userID int64, limit int) ([]core.AnalysisSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, period_start, period_end, payload, insights, recommendations, confidence, created_at
		FROM analysis_snapshots
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.AnalysisSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id int64) (core.AnalysisSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, period_start, period_end, payload, insights, recommendations, confidence, created_at
		FROM analysis_snapshots
		WHERE id = ?`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AnalysisSnapshot{}, ledger.ErrSnapshotNotFound
	}
	return snap, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (core.AnalysisSnapshot, error) {
	var (
		snap                    core.AnalysisSnapshot
		kind                    string
		start, end, created     string
		payload, insights, recs string
	)
	err := row.Scan(&snap.ID, &snap.UserID, &kind, &start, &end,
		&payload, &insights, &recs, &snap.Confidence, &created)
	if err != nil {
		return core.AnalysisSnapshot{}, err
	}

	snap.Kind = core.AnalysisKind(kind)
	snap.Payload = json.RawMessage(payload)
	if snap.Period.Start, err = time.Parse(dateFormat, start); err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("parse period start: %w", err)
	}
	if snap.Period.End, err = time.Parse(dateFormat, end); err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("parse period end: %w", err)
	}
	if snap.CreatedAt, err = time.Parse(dateFormat, created); err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("parse created at: %w", err)
	}
	if err := json.Unmarshal([]byte(insights), &snap.Insights); err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("unmarshal insights: %w", err)
	}
	if err := json.Unmarshal([]byte(recs), &snap.Recommendations); err != nil {
		return core.AnalysisSnapshot{}, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	return snap, nil
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
