package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates a file with parent directories as needed.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// TestCopyTree duplicates a nested tree and verifies contents.
func TestCopyTree(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	writeFile(t, filepath.Join(src, "metadata.txt"), "version=1.0\n")
	writeFile(t, filepath.Join(src, "dialogs", "sample_dock.py"), "print('hi')\n")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))

	require.NoError(t, CopyTree(src, dst))

	contents, err := os.ReadFile(filepath.Join(dst, "dialogs", "sample_dock.py"))
	require.NoError(t, err)
	require.Equal(t, "print('hi')\n", string(contents))

	info, err := os.Stat(filepath.Join(dst, "empty"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

// TestCopyTree_NoAliasing mutates the copy and checks the source is untouched.
func TestCopyTree_NoAliasing(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "copy")

	writeFile(t, filepath.Join(src, "plugin.py"), "original")
	require.NoError(t, CopyTree(src, dst))

	require.NoError(t, os.WriteFile(filepath.Join(dst, "plugin.py"), []byte("mutated"), 0o644))

	contents, err := os.ReadFile(filepath.Join(src, "plugin.py"))
	require.NoError(t, err)
	require.Equal(t, "original", string(contents))
}

// TestCopyTree_SourceErrors rejects missing sources and plain files.
func TestCopyTree_SourceErrors(t *testing.T) {
	t.Parallel()

	dst := t.TempDir()

	require.Error(t, CopyTree(filepath.Join(t.TempDir(), "missing"), dst))

	file := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, file, "x")
	require.Error(t, CopyTree(file, dst))
}
