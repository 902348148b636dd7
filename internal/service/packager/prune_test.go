package packager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newDirtyTree builds a synthetic plugin tree littered with build artifacts.
func newDirtyTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	dirs := []string{
		"__pycache__",
		".git",
		".svn",
		".idea",
		".vscode",
		"__MACOSX",
		"plugin_tools.egg-info",
		"dialogs",
		filepath.Join("dialogs", "__pycache__"),
	}
	for _, dir := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	files := []string{
		"metadata.txt",
		"plugin.py",
		"resources.qrc",
		"module.pyc",
		"module.pyo",
		"notes.bak",
		"draft~",
		".DS_Store",
		"ui_settings.py",
		"resources_rc.py",
		filepath.Join(".git", "config"),
		filepath.Join("__pycache__", "plugin.cpython-312.pyc"),
		filepath.Join("dialogs", "sample_dock.py"),
		filepath.Join("dialogs", "__pycache__", "sample_dock.cpython-312.pyc"),
	}
	for _, file := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, file), []byte("x"), 0o644))
	}

	return root
}

// TestPrune removes every excluded entry and keeps everything else.
func TestPrune(t *testing.T) {
	t.Parallel()

	root := newDirtyTree(t)
	require.NoError(t, Prune(root))

	removed := []string{
		"__pycache__",
		".git",
		".svn",
		".idea",
		".vscode",
		"__MACOSX",
		"plugin_tools.egg-info",
		"module.pyc",
		"module.pyo",
		"notes.bak",
		"draft~",
		".DS_Store",
		"ui_settings.py",
		"resources_rc.py",
		filepath.Join("dialogs", "__pycache__"),
	}
	for _, entry := range removed {
		_, err := os.Stat(filepath.Join(root, entry))
		require.ErrorIs(t, err, os.ErrNotExist, entry)
	}

	kept := []string{
		"metadata.txt",
		"plugin.py",
		"resources.qrc",
		filepath.Join("dialogs", "sample_dock.py"),
	}
	for _, entry := range kept {
		_, err := os.Stat(filepath.Join(root, entry))
		require.NoError(t, err, entry)
	}
}

// TestPrune_CleanTree is a no-op on a tree without artifacts.
func TestPrune_CleanTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "plugin.py"), []byte("x"), 0o644))

	require.NoError(t, Prune(root))

	_, err := os.Stat(filepath.Join(root, "plugin.py"))
	require.NoError(t, err)
}

// TestMatchesAny covers the glob tables directly.
func TestMatchesAny(t *testing.T) {
	t.Parallel()

	require.True(t, matchesAny(prunedDirPatterns, "widgets.egg-info"))
	require.False(t, matchesAny(prunedDirPatterns, "dialogs"))

	require.True(t, matchesAny(prunedFilePatterns, "ui_main_window.py"))
	require.False(t, matchesAny(prunedFilePatterns, "main_window.py"))
	require.False(t, matchesAny(prunedFilePatterns, "ui_helpers.txt"))
}
