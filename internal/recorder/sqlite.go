package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"NavSentinel/internal/model"
)

// SQLiteRecorder persists snapshots and history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logrus.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *logrus.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the read API query while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fund_intraday_snapshots (
			fund_code    TEXT NOT NULL,
			date         TEXT NOT NULL,
			time         TEXT NOT NULL,
			estimate     REAL NOT NULL,
			est_rate     REAL,
			confidence   REAL,
			method       TEXT,
			collected_at INTEGER NOT NULL,
			PRIMARY KEY (fund_code, date, time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_date ON fund_intraday_snapshots(date)`,

		`CREATE TABLE IF NOT EXISTS intraday_series (
			fund_code         TEXT NOT NULL,
			date              TEXT NOT NULL,
			prev_nav          REAL,
			last_collected_at INTEGER NOT NULL,
			PRIMARY KEY (fund_code, date)
		)`,

		`CREATE TABLE IF NOT EXISTS fund_history (
			code       TEXT NOT NULL,
			date       TEXT NOT NULL,
			nav        REAL NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (code, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_code ON fund_history(code)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	at := rec.CollectedAt.Unix()
	snap := rec.Snapshot
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO fund_intraday_snapshots
		(fund_code, date, time, estimate, est_rate, confidence, method, collected_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.Code, rec.Date, snap.Time, snap.Estimate, snap.EstRate, snap.Confidence, string(snap.Method), at,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO intraday_series
		(fund_code, date, prev_nav, last_collected_at) VALUES (?,?,?,?)
		ON CONFLICT(fund_code, date) DO UPDATE SET
			prev_nav = excluded.prev_nav,
			last_collected_at = excluded.last_collected_at`,
		rec.Code, rec.Date, rec.PrevNAV, at,
	); err != nil {
		return fmt.Errorf("upsert series: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Series(ctx context.Context, code, date string) (*model.IntradaySeries, error) {
	series := emptySeries(date)

	var prevNAV sql.NullFloat64
	var last int64
	err := r.db.QueryRowContext(ctx,
		`SELECT prev_nav, last_collected_at FROM intraday_series WHERE fund_code = ? AND date = ?`,
		code, date,
	).Scan(&prevNAV, &last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return series, nil
	case err != nil:
		return nil, fmt.Errorf("query series: %w", err)
	}
	series.PrevNAV = prevNAV.Float64
	collected := time.Unix(last, 0)
	series.LastCollectedAt = &collected

	rows, err := r.db.QueryContext(ctx, `SELECT time, estimate, est_rate, confidence, method
		FROM fund_intraday_snapshots WHERE fund_code = ? AND date = ? ORDER BY time`,
		code, date,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s model.IntradaySnapshot
		var rate, conf sql.NullFloat64
		var method sql.NullString
		if err := rows.Scan(&s.Time, &s.Estimate, &rate, &conf, &method); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.EstRate, s.Confidence, s.Method = rate.Float64, conf.Float64, model.Method(method.String)
		series.Snapshots = append(series.Snapshots, s)
	}
	return series, rows.Err()
}

func (r *SQLiteRecorder) SaveHistory(ctx context.Context, code string, records []model.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO fund_history (code, date, nav, updated_at) VALUES (?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare history: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, code, rec.Date.Format(model.DateLayout), rec.NAV, now); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LoadHistory(ctx context.Context, code string, limit int) ([]model.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, nav FROM fund_history WHERE code = ? ORDER BY date DESC LIMIT ?`, code, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []model.HistoryRecord
	for rows.Next() {
		var date string
		var nav float64
		if err := rows.Scan(&date, &nav); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		d, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse history date %q: %w", date, err)
		}
		records = append(records, model.HistoryRecord{Date: d, NAV: nav})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// newest first from the query; callers want ascending
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Cleanup removes snapshots and series rows dated before the given day.
func (r *SQLiteRecorder) Cleanup(ctx context.Context, before string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM fund_intraday_snapshots WHERE date < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM intraday_series WHERE date < ?`, before); err != nil {
		return 0, fmt.Errorf("delete series: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit cleanup: %w", err)
	}
	return n, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
