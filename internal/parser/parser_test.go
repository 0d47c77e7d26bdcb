package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `using Xunit;

public class SampleTests
{
    public void Case()
    {
        Assert.True(true);
    }
}
`

func TestParse(t *testing.T) {
	doc, err := Parse("sample.cs", []byte(sampleSource))
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "compilation_unit", root.Type())
	assert.False(t, root.HasError(), "well-formed source must parse cleanly")
	assert.Equal(t, sampleSource, doc.Content(root))
}

func TestParse_RecoversFromBrokenSource(t *testing.T) {
	// tree-sitter always yields a tree; broken regions become error nodes.
	doc, err := Parse("broken.cs", []byte(`public class { { {`))
	require.NoError(t, err)
	assert.True(t, doc.Root().HasError())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.cs")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0o644))

	doc, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, []byte(sampleSource), doc.Source)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.cs"))
	assert.Error(t, err)
}
