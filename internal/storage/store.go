package storage

import (
	"context"
	"time"
)

// Run is one recorded migration run: the aggregate counts plus the files
// that saw activity.
type Run struct {
	ID        int64
	Root      string
	DryRun    bool
	StartedAt time.Time
	Files     int
	Changed   int
	Applied   int
	Skipped   int
	Failed    int
	Verbs     map[string]int
	Results   []FileRecord
}

// FileRecord is one file's outcome within a run. Only files that changed,
// skipped a chain, or failed are recorded.
type FileRecord struct {
	Path    string
	Changed bool
	Applied int
	Skipped int
	Error   string
}

// HistoryStore persists migration runs for later inspection.
type HistoryStore interface {
	// SaveRun stores a run and its file records, returning the run ID.
	SaveRun(ctx context.Context, run *Run) (int64, error)

	// ListRuns returns the most recent runs, newest first, without their
	// file records.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// RunFiles retrieves the file records of one run.
	RunFiles(ctx context.Context, runID int64) ([]FileRecord, error)

	Close() error
}
