// Package history persists run reports to a local SQLite database so past
// runs can be listed and compared.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XiangYd616/webtest/packages/engine"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	test_id     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	success     INTEGER NOT NULL,
	status      TEXT NOT NULL,
	score       INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	successful  INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	avg_ms      INTEGER NOT NULL,
	report_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_test_id ON runs(test_id);
`

// Entry is one persisted run summary. Report is only populated when the
// row is loaded with its full payload.
type Entry struct {
	ID                  int64             `json:"id"`
	TestID              string            `json:"testId"`
	CreatedAt           time.Time         `json:"createdAt"`
	Success             bool              `json:"success"`
	Status              string            `json:"status"`
	Score               int               `json:"score"`
	Total               int               `json:"total"`
	Successful          int               `json:"successful"`
	Failed              int               `json:"failed"`
	AverageResponseTime int64             `json:"averageResponseTime"`
	Report              *engine.RunReport `json:"report,omitempty"`
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveReport persists one run report and returns the row id.
func (s *Store) SaveReport(ctx context.Context, report *engine.RunReport) (int64, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	var total, successful, failed int
	var avg int64
	if report.Summary != nil {
		total = report.Summary.Total
		successful = report.Summary.Successful
		failed = report.Summary.Failed
		avg = report.Summary.AverageResponseTime
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (test_id, created_at, success, status, score, total, successful, failed, avg_ms, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.TestID,
		report.Timestamp.UTC().Format(time.RFC3339Nano),
		boolToInt(report.Success),
		report.Status,
		report.Score,
		total, successful, failed, avg,
		string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the most recent run summaries, newest first. Full report
// payloads are not loaded; use Get for those.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_id, created_at, success, status, score, total, successful, failed, avg_ms
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Get loads one run with its full report payload.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, test_id, created_at, success, status, score, total, successful, failed, avg_ms, report_json
		 FROM runs WHERE id = ?`, id)

	var payload string
	entry, err := scanEntry(func(dest ...any) error {
		return row.Scan(append(dest, &payload)...)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run %d not found", id)
		}
		return nil, err
	}

	var report engine.RunReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to decode stored report: %w", err)
	}
	entry.Report = &report
	return entry, nil
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var entry Entry
	var createdAt string
	var success int

	err := scan(&entry.ID, &entry.TestID, &createdAt, &success, &entry.Status,
		&entry.Score, &entry.Total, &entry.Successful, &entry.Failed, &entry.AverageResponseTime)
	if err != nil {
		return nil, err
	}

	entry.Success = success != 0
	if ts, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		entry.CreatedAt = ts
	}
	return &entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
