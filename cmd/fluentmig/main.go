package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"fluentmig/internal/config"
	"fluentmig/internal/pipeline"
	"fluentmig/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "fluentmig",
		Short: "Migrates FluentAssertions test suites to plain xUnit assertions",
	}
	projectRoot string
	workers     int
	configPath  string
	historyDB   string
	historyN    int
	sinceRef    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "root", "r", "", "Project root to scan (defaults to config or current directory)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "Number of files rewritten in parallel (defaults to CPU count)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&historyDB, "history", "", "SQLite file recording each run (empty disables history)")
	rootCmd.PersistentFlags().StringVar(&sinceRef, "since", "", "Only visit files changed since this git ref")
	historyCmd.Flags().IntVarP(&historyN, "limit", "n", 10, "Number of runs to show")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
}

// newMigration builds a Migration from config file defaults overridden by
// flags. A missing config file is fine; flags and defaults carry the run.
func newMigration() *pipeline.Migration {
	m := pipeline.NewMigration(".")
	if cfg, err := config.LoadConfig(configPath); err == nil {
		if cfg.Project.Root != "" {
			m.Root = cfg.Project.Root
		}
		m.Exclude = cfg.Project.Exclude
		m.DryRun = cfg.Migrate.DryRun
		if cfg.Migrate.Workers > 0 {
			m.Workers = cfg.Migrate.Workers
		}
	}
	if projectRoot != "" {
		m.Root = projectRoot
	}
	if workers > 0 {
		m.Workers = workers
	}
	m.Since = sinceRef
	return m
}

// historyPath resolves the history database location: the flag wins, then
// the config file; empty means history is disabled.
func historyPath() string {
	if historyDB != "" {
		return historyDB
	}
	if cfg, err := config.LoadConfig(configPath); err == nil {
		return cfg.History.Path
	}
	return ""
}

// withHistory attaches a history store to the migration when one is
// configured. The returned closer is a no-op otherwise.
func withHistory(m *pipeline.Migration) (func(), error) {
	path := historyPath()
	if path == "" {
		return func() {}, nil
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	m.History = store
	return func() { store.Close() }, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite assertion chains in place",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newMigration()
		closeHistory, err := withHistory(m)
		if err != nil {
			return err
		}
		defer closeHistory()
		summary, err := m.Run(cmd.Context())
		if err != nil {
			return err
		}
		printSummary(summary)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which files would change, without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newMigration()
		m.DryRun = true
		closeHistory, err := withHistory(m)
		if err != nil {
			return err
		}
		defer closeHistory()
		summary, err := m.Run(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range summary.Results {
			if r.Changed {
				fmt.Printf("  %s: %d chains (%d left untouched)\n", r.Path, r.Stats.Applied, r.Stats.Skipped)
			}
		}
		printSummary(summary)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past migration runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := historyPath()
		if path == "" {
			return fmt.Errorf("no history database configured (use --history or the config file)")
		}
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), historyN)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}
		for _, r := range runs {
			mode := "migrate"
			if r.DryRun {
				mode = "check"
			}
			fmt.Printf("#%d  %s  %-7s %s\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), mode, r.Root)
			fmt.Printf("    %d files scanned, %d changed, %d chains rewritten, %d skipped, %d failed\n",
				r.Files, r.Changed, r.Applied, r.Skipped, r.Failed)
		}
		return nil
	},
}

func printSummary(s *pipeline.Summary) {
	if s.Skipped > 0 {
		fmt.Printf("⚠️ %d recognized chains left untouched (ambiguous shape or arguments)\n", s.Skipped)
	}
	if s.Failed > 0 {
		fmt.Printf("⚠️ %d files skipped due to errors\n", s.Failed)
	}
	if len(s.Verbs) == 0 {
		return
	}
	verbs := make([]string, 0, len(s.Verbs))
	for v := range s.Verbs {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	fmt.Println("📊 Rewritten by verb:")
	for _, v := range verbs {
		fmt.Printf("  %-24s %d\n", v, s.Verbs[v])
	}
}
