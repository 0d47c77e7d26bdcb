package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite history database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			root TEXT,
			dry_run INTEGER,
			started_at DATETIME,
			files INTEGER,
			changed INTEGER,
			applied INTEGER,
			skipped INTEGER,
			failed INTEGER,
			verbs JSON
		);`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id INTEGER,
			path TEXT,
			changed INTEGER,
			applied INTEGER,
			skipped INTEGER,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores the run and its file records in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	verbs, _ := json.Marshal(run.Verbs)

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (root, dry_run, started_at, files, changed, applied, skipped, failed, verbs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Root, run.DryRun, run.StartedAt.UTC(), run.Files, run.Changed, run.Applied, run.Skipped, run.Failed, verbs)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_files (run_id, path, changed, applied, skipped, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range run.Results {
		if _, err := stmt.Exec(id, r.Path, r.Changed, r.Applied, r.Skipped, r.Error); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, dry_run, started_at, files, changed, applied, skipped, failed, verbs
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var verbs []byte
		if err := rows.Scan(&r.ID, &r.Root, &r.DryRun, &r.StartedAt, &r.Files, &r.Changed, &r.Applied, &r.Skipped, &r.Failed, &verbs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if len(verbs) > 0 {
			_ = json.Unmarshal(verbs, &r.Verbs)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) RunFiles(ctx context.Context, runID int64) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, changed, applied, skipped, error
		FROM run_files WHERE run_id = ? ORDER BY path
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var r FileRecord
		if err := rows.Scan(&r.Path, &r.Changed, &r.Applied, &r.Skipped, &r.Error); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
