package crawler

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Crawler scans a directory for C# source files worth offering to the
// rewriter.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance. Extra directory names to skip
// can be passed on top of the built-in ones.
func NewCrawler(extraIgnored ...string) *Crawler {
	ignored := []string{".git", "bin", "obj", "node_modules", "packages", ".vs"}
	return &Crawler{ignored: append(ignored, extraIgnored...)}
}

// ScanProject walks the root directory and streams every candidate file
// path to the callback, preventing large memory buildup on big solutions.
func (c *Crawler) ScanProject(root string, onFile func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !isCandidate(d.Name()) {
			return nil
		}

		onFile(path)
		return nil
	})
}

// isCandidate filters to hand-written C# sources; generated files are never
// rewritten.
func isCandidate(name string) bool {
	if !strings.HasSuffix(name, ".cs") {
		return false
	}
	return !strings.HasSuffix(name, ".g.cs") &&
		!strings.HasSuffix(name, ".Designer.cs") &&
		!strings.HasSuffix(name, ".generated.cs")
}
