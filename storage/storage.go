// Package storage persists simulation runs and their day-by-day reports to
// SQLite, so long experiments can be compared across seeds and configs.
package storage

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/shop"
)

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Run is one persisted simulation run.
type Run struct {
	ID           string     `json:"id"`
	Seed         int64      `json:"seed"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Days         int        `json:"days"`
	FinalBalance float64    `json:"final_balance"`
	Served       int        `json:"served"`
	Lost         int        `json:"lost"`
	FinesPaid    int        `json:"fines_paid"`
	FinesTotal   float64    `json:"fines_total"`
	Outcome      string     `json:"outcome"`
}

// New opens (or creates) the run database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "storage: open database")
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "storage: migrate")
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ended_at DATETIME,
		days INTEGER DEFAULT 0,
		final_balance REAL DEFAULT 0,
		served INTEGER DEFAULT 0,
		lost INTEGER DEFAULT 0,
		fines_paid INTEGER DEFAULT 0,
		fines_total REAL DEFAULT 0,
		outcome TEXT NOT NULL DEFAULT 'running'
	);

	CREATE TABLE IF NOT EXISTS day_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		income REAL NOT NULL,
		expenses REAL NOT NULL,
		balance REAL NOT NULL,
		critical_days INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_day_reports_run ON day_reports(run_id, day);
	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// CreateRun records the start of a simulation run.
func (s *Store) CreateRun(id string, seed int64) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)`,
		id, seed, time.Now().UTC(),
	)
	return errors.Wrap(err, "storage: create run")
}

// FinishRun stamps the run with its closing snapshot.
func (s *Store) FinishRun(id string, snap shop.Snapshot) error {
	_, err := s.db.Exec(
		`UPDATE runs SET ended_at = ?, days = ?, final_balance = ?, served = ?,
		 lost = ?, fines_paid = ?, fines_total = ?, outcome = ?
		 WHERE id = ?`,
		time.Now().UTC(), snap.Day, snap.Balance, snap.Served,
		snap.Lost, snap.FinesPaid, snap.FinesTotal, snap.Outcome, id,
	)
	return errors.Wrap(err, "storage: finish run")
}

// SaveDayReport appends one closed day to a run.
func (s *Store) SaveDayReport(runID string, r economy.DayReport) error {
	_, err := s.db.Exec(
		`INSERT INTO day_reports (run_id, day, income, expenses, balance, critical_days)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, r.Day, r.Income, r.Expenses, r.Balance, r.CriticalDays,
	)
	return errors.Wrap(err, "storage: save day report")
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, seed, started_at, ended_at, days, final_balance, served,
		 lost, fines_paid, fines_total, outcome
		 FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var endedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Seed, &run.StartedAt, &endedAt, &run.Days,
		&run.FinalBalance, &run.Served, &run.Lost, &run.FinesPaid,
		&run.FinesTotal, &run.Outcome)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, seed, started_at, ended_at, days, final_balance, served,
		 lost, fines_paid, fines_total, outcome
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "storage: list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "storage: scan run")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DayReports returns a run's closed days in order.
func (s *Store) DayReports(runID string) ([]economy.DayReport, error) {
	rows, err := s.db.Query(
		`SELECT day, income, expenses, balance, critical_days
		 FROM day_reports WHERE run_id = ? ORDER BY day`, runID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "storage: day reports")
	}
	defer rows.Close()

	var reports []economy.DayReport
	for rows.Next() {
		var r economy.DayReport
		if err := rows.Scan(&r.Day, &r.Income, &r.Expenses, &r.Balance, &r.CriticalDays); err != nil {
			return nil, errors.Wrap(err, "storage: scan day report")
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
