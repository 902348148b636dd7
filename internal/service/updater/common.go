package updater

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/opengeos/qgis-plugin-kit/internal/logger"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

var errHashUnavailable = errors.New("hash function unavailable")

const (
	// ManifestFilename stores the update description published next to the archive.
	ManifestFilename = "plugin-kit-version.yaml"

	// MarkerFilename marks that the updater is running right now to avoid parallel execution.
	MarkerFilename = "plugin-kit-update-marker.bin"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate update file hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// baseUpdaterExecutable is the updater binary name without platform extension.
	baseUpdaterExecutable = "plugin-updater"

	// markerLifetime is the period after which a stale update marker is ignored.
	markerLifetime = 30 * time.Second

	// defaultMapCapacity is the default initial capacity for maps and slices.
	defaultMapCapacity = 16
)

// Description contains metadata about a published plugin release.
type Description struct {
	// PluginName is the directory name the plugin installs under.
	PluginName string `yaml:"name"`
	// VersionNumber is the plugin version taken from metadata.txt.
	VersionNumber string `yaml:"version"`
	// ArchiveName is the zip produced alongside this manifest.
	ArchiveName string `yaml:"archive"`
	// Files maps slash-separated relative paths to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription produces a Description initialized with defaults.
func NewDescription(pluginName, versionNumber string) *Description {
	return &Description{
		PluginName:    pluginName,
		VersionNumber: versionNumber,
		Files:         make(map[string]string, defaultMapCapacity),
	}
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// IsUpdaterRunningNow checks presence of a marker file and attempts recovery if it looks stale.
func IsUpdaterRunningNow(ctx context.Context) bool {
	logger.Debug(ctx, "Checking for the presence of an update marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The update marker is too old, attempting cleanup")

		if err = terminateProcessByName(updaterExecutable()); err != nil {
			return true
		}

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read update marker: %v", err)

	return false
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID || process.Executable() != processName {
			continue
		}

		runningProcess, err := os.FindProcess(processID)
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}

// updaterExecutable returns the updater binary name for the current platform.
func updaterExecutable() string {
	return baseUpdaterExecutable + getExecutableExtension()
}

// getExecutableExtension returns ".exe" on Windows and an empty string elsewhere.
func getExecutableExtension() string {
	if strings.EqualFold(runtime.GOOS, "windows") {
		return ".exe"
	}

	return ""
}
