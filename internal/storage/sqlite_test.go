package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_SaveAndListRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	first := testRun("/repo/a", false)
	firstID, err := store.SaveRun(ctx, first)
	require.NoError(t, err)

	second := testRun("/repo/b", true)
	second.Results = nil
	secondID, err := store.SaveRun(ctx, second)
	require.NoError(t, err)
	assert.Greater(t, secondID, firstID)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, secondID, runs[0].ID)
	assert.Equal(t, "/repo/b", runs[0].Root)
	assert.True(t, runs[0].DryRun)

	assert.Equal(t, firstID, runs[1].ID)
	assert.Equal(t, "/repo/a", runs[1].Root)
	assert.Equal(t, 12, runs[1].Files)
	assert.Equal(t, map[string]int{"Be": 3, "BeTrue": 1}, runs[1].Verbs)
	assert.WithinDuration(t, first.StartedAt, runs[1].StartedAt, time.Second)
}

func TestSQLiteStore_ListRunsLimit(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.SaveRun(ctx, testRun("/repo", false))
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteStore_RunFiles(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	id, err := store.SaveRun(ctx, testRun("/repo", false))
	require.NoError(t, err)

	records, err := store.RunFiles(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Ordered by path.
	assert.Equal(t, "Broken.cs", records[0].Path)
	assert.Equal(t, "read failure", records[0].Error)
	assert.Equal(t, "OrderTests.cs", records[1].Path)
	assert.True(t, records[1].Changed)
	assert.Equal(t, 4, records[1].Applied)

	empty, err := store.RunFiles(ctx, id+100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStore_ReopenKeepsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	_, err = store.SaveRun(ctx, testRun("/repo", false))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func testRun(root string, dryRun bool) *Run {
	return &Run{
		Root:      root,
		DryRun:    dryRun,
		StartedAt: time.Now(),
		Files:     12,
		Changed:   2,
		Applied:   4,
		Skipped:   1,
		Failed:    1,
		Verbs:     map[string]int{"Be": 3, "BeTrue": 1},
		Results: []FileRecord{
			{Path: "OrderTests.cs", Changed: true, Applied: 4, Skipped: 1},
			{Path: "Broken.cs", Error: "read failure"},
		},
	}
}
