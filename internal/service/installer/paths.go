package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// errUnsupportedOS is returned for platforms without a known QGIS profile layout.
var errUnsupportedOS = errors.New("unsupported operating system, copy the plugin into the QGIS plugins directory manually")

// profileRelativePath is the QGIS default-profile plugins path relative to
// the per-platform base directory.
//
//nolint:gochecknoglobals // Static lookup table keyed by GOOS.
var profileRelativePath = map[string][]string{
	"linux":   {".local", "share", "QGIS", "QGIS3", "profiles", "default", "python", "plugins"},
	"darwin":  {"Library", "Application Support", "QGIS", "QGIS3", "profiles", "default", "python", "plugins"},
	"windows": {"QGIS", "QGIS3", "profiles", "default", "python", "plugins"},
}

// DefaultPluginsDir resolves the QGIS plugin-search directory for the current
// platform. On Windows the path is rooted at %APPDATA%; elsewhere it is
// rooted at the user's home directory.
func DefaultPluginsDir() (string, error) {
	return pluginsDirForOS(runtime.GOOS)
}

// pluginsDirForOS resolves the plugin-search directory for the given GOOS value.
func pluginsDirForOS(goos string) (string, error) {
	segments, ok := profileRelativePath[goos]
	if !ok {
		return "", fmt.Errorf("%s: %w", goos, errUnsupportedOS)
	}

	base, err := pluginsBaseDir(goos)
	if err != nil {
		return "", err
	}

	return filepath.Join(append([]string{base}, segments...)...), nil
}

// pluginsBaseDir returns the per-platform root the profile path hangs off.
func pluginsBaseDir(goos string) (string, error) {
	if goos == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return appData, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	if goos == "windows" {
		return filepath.Join(home, "AppData", "Roaming"), nil
	}

	return home, nil
}
