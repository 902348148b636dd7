package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opengeos/qgis-plugin-kit/internal/service/installer"
)

// TestInstaller_InstallRemoveCycle covers install, reinstall and remove
// against an isolated plugins directory.
func TestInstaller_InstallRemoveCycle(t *testing.T) {
	t.Parallel()

	src := newSourceTree(t, "1.2.3")
	pluginsDir := filepath.Join(t.TempDir(), "plugins")

	installOptions := &installer.Options{
		Name:       "foo",
		SourceDir:  src,
		PluginsDir: pluginsDir,
	}

	require.NoError(t, installer.Run(context.Background(), installOptions))

	installed := filepath.Join(pluginsDir, "foo")

	contents, err := os.ReadFile(filepath.Join(installed, "metadata.txt"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "version=1.2.3")

	// Install does not prune: the full tree is copied as-is.
	_, err = os.Stat(filepath.Join(installed, "dialogs", "sample_dock.py"))
	require.NoError(t, err)

	// Reinstall is a clean overwrite.
	require.NoError(t, installer.Run(context.Background(), installOptions))

	// Remove deletes the tree, removing again is a no-op.
	removeOptions := &installer.Options{
		Name:       "foo",
		Remove:     true,
		PluginsDir: pluginsDir,
	}

	require.NoError(t, installer.Run(context.Background(), removeOptions))

	_, err = os.Stat(installed)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, installer.Run(context.Background(), removeOptions))
}
