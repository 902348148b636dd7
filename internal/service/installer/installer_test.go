package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newSourceTree builds a small plugin tree and returns its path.
func newSourceTree(t *testing.T) string {
	t.Helper()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "metadata.txt"), []byte("version=1.0.0\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "dialogs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "dialogs", "sample_dock.py"), []byte("pass\n"), 0o644))

	return src
}

// TestRun_InstallThenReinstall verifies the clean-overwrite semantics: after
// a second install exactly one copy of the source tree exists at the target.
func TestRun_InstallThenReinstall(t *testing.T) {
	t.Parallel()

	src := newSourceTree(t)
	pluginsDir := filepath.Join(t.TempDir(), "plugins")

	opts := &Options{
		Name:       "my_plugin",
		SourceDir:  src,
		PluginsDir: pluginsDir,
	}

	require.NoError(t, Run(context.Background(), opts))

	// Leave a stray file in the installed copy; reinstall must not merge.
	stray := filepath.Join(pluginsDir, "my_plugin", "stray.txt")
	require.NoError(t, os.WriteFile(stray, []byte("stale"), 0o644))

	require.NoError(t, Run(context.Background(), opts))

	_, err := os.Stat(stray)
	require.ErrorIs(t, err, os.ErrNotExist)

	contents, err := os.ReadFile(filepath.Join(pluginsDir, "my_plugin", "dialogs", "sample_dock.py"))
	require.NoError(t, err)
	require.Equal(t, "pass\n", string(contents))
}

// TestRun_RemoveAbsent treats removing a never-installed plugin as a no-op.
func TestRun_RemoveAbsent(t *testing.T) {
	t.Parallel()

	opts := &Options{
		Name:       "never_installed",
		Remove:     true,
		PluginsDir: t.TempDir(),
	}

	require.NoError(t, Run(context.Background(), opts))
}

// TestRun_RemoveInstalled deletes the installed tree.
func TestRun_RemoveInstalled(t *testing.T) {
	t.Parallel()

	src := newSourceTree(t)
	pluginsDir := t.TempDir()

	require.NoError(t, Run(context.Background(), &Options{
		Name:       "my_plugin",
		SourceDir:  src,
		PluginsDir: pluginsDir,
	}))

	require.NoError(t, Run(context.Background(), &Options{
		Name:       "my_plugin",
		Remove:     true,
		PluginsDir: pluginsDir,
	}))

	_, err := os.Stat(filepath.Join(pluginsDir, "my_plugin"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_MissingSource is a configuration error reported before any side effect.
func TestRun_MissingSource(t *testing.T) {
	t.Parallel()

	pluginsDir := filepath.Join(t.TempDir(), "plugins")

	err := Run(context.Background(), &Options{
		Name:       "my_plugin",
		SourceDir:  filepath.Join(t.TempDir(), "missing"),
		PluginsDir: pluginsDir,
	})
	require.ErrorIs(t, err, errSourceMissing)

	// The plugins directory must not have been created.
	_, err = os.Stat(pluginsDir)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_NameRequired rejects an empty plugin name.
func TestRun_NameRequired(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{PluginsDir: t.TempDir()})
	require.ErrorIs(t, err, errNameRequired)
}

// TestPluginsDirForOS covers the per-platform lookup table.
func TestPluginsDirForOS(t *testing.T) { //nolint:paralleltest // Mutates APPDATA.
	t.Setenv("APPDATA", filepath.Join("C:", "Users", "dev", "AppData", "Roaming"))

	for _, goos := range []string{"linux", "darwin", "windows"} {
		dir, err := pluginsDirForOS(goos)
		require.NoError(t, err, goos)
		require.Contains(t, dir, filepath.Join("QGIS", "QGIS3", "profiles", "default", "python", "plugins"))
	}

	_, err := pluginsDirForOS("plan9")
	require.ErrorIs(t, err, errUnsupportedOS)
}
