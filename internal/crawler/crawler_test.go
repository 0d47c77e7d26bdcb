package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("// stub\n"), 0o644))
}

func TestScanProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "OrderTests.cs"))
	writeFile(t, filepath.Join(root, "Models", "Order.cs"))
	writeFile(t, filepath.Join(root, "Resources.Designer.cs"))
	writeFile(t, filepath.Join(root, "Schema.g.cs"))
	writeFile(t, filepath.Join(root, "Api.generated.cs"))
	writeFile(t, filepath.Join(root, "bin", "Cached.cs"))
	writeFile(t, filepath.Join(root, "obj", "Temp.cs"))
	writeFile(t, filepath.Join(root, "readme.txt"))

	var found []string
	err := NewCrawler().ScanProject(root, func(path string) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		found = append(found, filepath.ToSlash(rel))
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"OrderTests.cs", "Models/Order.cs"}, found)
}

func TestScanProject_ExtraIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Keep.cs"))
	writeFile(t, filepath.Join(root, "vendor", "Skip.cs"))

	var found []string
	err := NewCrawler("vendor").ScanProject(root, func(path string) {
		found = append(found, filepath.Base(path))
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Keep.cs"}, found)
}

func TestIsCandidate(t *testing.T) {
	assert.True(t, isCandidate("OrderTests.cs"))
	assert.False(t, isCandidate("Schema.g.cs"))
	assert.False(t, isCandidate("Resources.Designer.cs"))
	assert.False(t, isCandidate("Api.generated.cs"))
	assert.False(t, isCandidate("notes.md"))
}
