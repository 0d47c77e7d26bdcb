package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"fluentmig/internal/crawler"
	"fluentmig/internal/git"
	"fluentmig/internal/parser"
	"fluentmig/internal/rewriter"
	"fluentmig/internal/storage"
)

// Migration rewrites every candidate file under a project root. Each file
// gets its own engine and semantic model, so files are independent and run
// in parallel.
type Migration struct {
	Root    string
	DryRun  bool
	Workers int
	Exclude []string

	// Since restricts the run to files changed since the given git ref.
	Since string

	// History, when set, receives a record of each run.
	History storage.HistoryStore
}

// FileResult is the outcome of rewriting one file.
type FileResult struct {
	Path    string
	Changed bool
	Events  []rewriter.RewriteEvent
	Stats   rewriter.Stats
	Err     error
}

// Summary aggregates a whole migration run.
type Summary struct {
	Files   int
	Changed int
	Applied int
	Skipped int
	Failed  int
	Verbs   map[string]int
	Results []FileResult
}

func NewMigration(root string) *Migration {
	return &Migration{
		Root:    root,
		Workers: runtime.NumCPU(),
	}
}

// Run executes the migration: scan, rewrite, summarize. Per-file failures
// are recorded and skipped; only the scan itself can fail the run.
func (m *Migration) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	files, err := m.collectStage()
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	fmt.Printf("🔍 Found %d candidate files under %s\n", len(files), m.Root)

	results := m.rewriteStage(ctx, files)
	summary := summarize(results)

	if m.History != nil {
		if _, err := m.History.SaveRun(ctx, m.runRecord(started, summary)); err != nil {
			log.Printf("Warning: failed to record run: %v", err)
		}
	}

	if m.DryRun {
		fmt.Printf("✅ Dry run: %d of %d files would change (%d chains)\n",
			summary.Changed, summary.Files, summary.Applied)
	} else {
		fmt.Printf("✅ Rewrote %d of %d files (%d chains)\n",
			summary.Changed, summary.Files, summary.Applied)
	}
	return summary, nil
}

func (m *Migration) collectStage() ([]string, error) {
	var changed map[string]bool
	if m.Since != "" {
		var err error
		changed, err = git.ChangedFiles(m.Root, m.Since)
		if err != nil {
			return nil, err
		}
	}

	cr := crawler.NewCrawler(m.Exclude...)
	var files []string
	err := cr.ScanProject(m.Root, func(path string) {
		if changed != nil {
			abs, err := filepath.Abs(path)
			if err != nil || !changed[abs] {
				return
			}
		}
		files = append(files, path)
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (m *Migration) rewriteStage(ctx context.Context, files []string) []FileResult {
	workers := m.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Err: err}
				return nil
			}
			results[i] = m.rewriteFile(path)
			if results[i].Err != nil {
				log.Printf("Warning: skipping %s: %v", path, results[i].Err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (m *Migration) rewriteFile(path string) FileResult {
	source, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	// Cheap pre-filter: files without an entry call cannot contain chains.
	if !bytes.Contains(source, []byte(".Should(")) {
		return FileResult{Path: path}
	}

	doc, err := parser.Parse(path, source)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	res := rewriter.NewEngine(doc).Rewrite()

	result := FileResult{
		Path:    path,
		Changed: res.Changed,
		Events:  res.Events,
		Stats:   res.Stats,
	}
	if res.Changed && !m.DryRun {
		info, err := os.Stat(path)
		mode := os.FileMode(0o644)
		if err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(path, res.Output, mode); err != nil {
			result.Err = err
			result.Changed = false
		}
	}
	return result
}

// runRecord converts a summary into a history row. Only files with
// activity are kept; untouched files would dominate the table on large
// solutions without telling the reader anything.
func (m *Migration) runRecord(started time.Time, s *Summary) *storage.Run {
	run := &storage.Run{
		Root:      m.Root,
		DryRun:    m.DryRun,
		StartedAt: started,
		Files:     s.Files,
		Changed:   s.Changed,
		Applied:   s.Applied,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
		Verbs:     s.Verbs,
	}
	for _, r := range s.Results {
		if !r.Changed && r.Err == nil && r.Stats.Skipped == 0 {
			continue
		}
		rec := storage.FileRecord{
			Path:    r.Path,
			Changed: r.Changed,
			Applied: r.Stats.Applied,
			Skipped: r.Stats.Skipped,
		}
		if rel, err := filepath.Rel(m.Root, r.Path); err == nil {
			rec.Path = rel
		}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		run.Results = append(run.Results, rec)
	}
	return run
}

func summarize(results []FileResult) *Summary {
	s := &Summary{
		Results: results,
		Verbs:   make(map[string]int),
	}
	for _, r := range results {
		s.Files++
		if r.Err != nil {
			s.Failed++
			continue
		}
		if r.Changed {
			s.Changed++
		}
		s.Applied += r.Stats.Applied
		s.Skipped += r.Stats.Skipped
		for _, ev := range r.Events {
			if ev.Outcome == rewriter.OutcomeApplied {
				s.Verbs[ev.Verb]++
			}
		}
	}
	return s
}
