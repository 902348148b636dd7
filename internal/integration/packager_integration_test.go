package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opengeos/qgis-plugin-kit/internal/service/packager"
	upd "github.com/opengeos/qgis-plugin-kit/internal/service/updater"
)

// newSourceTree builds a plugin source tree with the provided metadata version.
func newSourceTree(t *testing.T, version string) string {
	t.Helper()

	src := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(src, "metadata.txt"),
		[]byte("[general]\nname=Foo\nversion="+version+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "__init__.py"), []byte("\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "dialogs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "dialogs", "sample_dock.py"), []byte("pass\n"), 0o644))

	return src
}

// TestPackager_VersionedAndPlainNames covers the documented naming example:
// a tree with version=2.1.0 packaged as foo produces foo-2.1.0.zip, and
// foo.zip with the version suffix disabled.
func TestPackager_VersionedAndPlainNames(t *testing.T) {
	t.Parallel()

	src := newSourceTree(t, "2.1.0")
	outputDir := t.TempDir()

	require.NoError(t, packager.Run(context.Background(), &packager.Options{
		Name:      "foo",
		SourceDir: src,
		OutputDir: outputDir,
	}))

	_, err := os.Stat(filepath.Join(outputDir, "foo-2.1.0.zip"))
	require.NoError(t, err)

	require.NoError(t, packager.Run(context.Background(), &packager.Options{
		Name:      "foo",
		SourceDir: src,
		OutputDir: outputDir,
		NoVersion: true,
	}))

	_, err = os.Stat(filepath.Join(outputDir, "foo.zip"))
	require.NoError(t, err)
}

// TestPackager_PublishesManifest verifies the archive, the manifest and the
// persisted settings are all produced when an update folder is configured.
func TestPackager_PublishesManifest(t *testing.T) {
	t.Parallel()

	src := newSourceTree(t, "2.1.0")
	outputDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, packager.Run(context.Background(), &packager.Options{
		ConfigPath:   configPath,
		Name:         "foo",
		SourceDir:    src,
		OutputDir:    outputDir,
		UpdateFolder: "https://updates.local/foo",
	}))

	_, err := os.Stat(filepath.Join(outputDir, "foo-2.1.0.zip"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outputDir, upd.ManifestFilename))
	require.NoError(t, err)

	_, err = os.Stat(configPath)
	require.NoError(t, err)
}
