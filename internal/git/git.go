package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ChangedFiles returns the absolute paths of files changed since baseRef in
// the repository containing root. Deleted files are excluded; there is
// nothing left to rewrite in them.
func ChangedFiles(root, baseRef string) (map[string]bool, error) {
	top, err := run(root, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	topLevel := strings.TrimSpace(string(top))

	output, err := run(root, "diff", "--name-only", "--diff-filter=d", baseRef)
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	changed := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// git reports paths relative to the repository top level.
		changed[filepath.Join(topLevel, filepath.FromSlash(line))] = true
	}
	return changed, scanner.Err()
}

func run(dir string, args ...string) ([]byte, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	return cmd.Output()
}
