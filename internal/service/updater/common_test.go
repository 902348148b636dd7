package updater

import (
	"context"
	"crypto/sha512"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdir stands in for testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(prev))
	})
}

// TestGetFileChecksum matches the documented SHA512 checksum scheme.
func TestGetFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plugin.py")
	contents := []byte("def run():\n    pass\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	checksum, err := GetFileChecksum(path)
	require.NoError(t, err)

	expected := sha512.Sum512(contents)
	require.Equal(t, expected[:], checksum)
}

// TestGetFileChecksum_Missing propagates the read error.
func TestGetFileChecksum_Missing(t *testing.T) {
	t.Parallel()

	_, err := GetFileChecksum(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

// TestIsUpdaterRunningNow detects a fresh marker and tolerates its absence.
func TestIsUpdaterRunningNow(t *testing.T) { //nolint:paralleltest // Changes working directory.
	chdir(t, t.TempDir())

	ctx := context.Background()
	require.False(t, IsUpdaterRunningNow(ctx))

	marker, err := os.Create(MarkerFilename)
	require.NoError(t, err)
	require.NoError(t, marker.Close())

	require.True(t, IsUpdaterRunningNow(ctx))
}
