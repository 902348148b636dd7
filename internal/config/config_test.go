package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing plugin name.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Name with path separators.
	cfg = &Config{
		PluginName: "foo/bar",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Bad update folder.
	cfg = &Config{
		PluginName:   "my_plugin",
		UpdateFolder: "not a url",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay with update folder, defaults filled in.
	cfg = &Config{
		PluginName:   "my_plugin",
		UpdateFolder: "https://example.com/updates",
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		PluginName:   "my_plugin",
		UpdateFolder: "https://updates.local/",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.PluginName, loaded.PluginName)
	require.Equal(t, cfg.UpdateFolder, loaded.UpdateFolder)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
