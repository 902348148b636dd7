package packager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Directory and file patterns removed from the staged copy before archiving.
// Matching is against base names only. Absence of any such entry is not an error.
//
//nolint:gochecknoglobals // Static pattern tables compiled once at startup.
var (
	prunedDirPatterns = compilePatterns([]string{
		"__pycache__",
		".git",
		".svn",
		".idea",
		".vscode",
		"__MACOSX",
		"*.egg-info",
	})

	prunedFilePatterns = compilePatterns([]string{
		"*.pyc",
		"*.pyo",
		"*.bak",
		"*~",
		".DS_Store",
		"ui_*.py",
		"resources_rc.py",
	})
)

// compilePatterns compiles glob patterns, panicking on malformed entries.
// The tables above are package constants in spirit, so a bad pattern is a
// programming error caught by any test run.
func compilePatterns(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		globs = append(globs, glob.MustCompile(pattern))
	}

	return globs
}

// matchesAny reports whether the name matches at least one compiled pattern.
func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}

	return false
}

// Prune recursively removes build artifacts and VCS metadata from the tree
// rooted at root. It is applied to the staged copy only, never to the
// original source tree.
func Prune(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		if entry.IsDir() {
			if !matchesAny(prunedDirPatterns, entry.Name()) {
				return nil
			}

			if err = os.RemoveAll(path); err != nil {
				return fmt.Errorf("prune directory %s: %w", path, err)
			}

			return fs.SkipDir
		}

		if !matchesAny(prunedFilePatterns, entry.Name()) {
			return nil
		}

		if err = os.Remove(path); err != nil {
			return fmt.Errorf("prune file %s: %w", path, err)
		}

		return nil
	})
}
