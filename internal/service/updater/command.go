package updater

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/opengeos/qgis-plugin-kit/internal/config"
	"github.com/opengeos/qgis-plugin-kit/internal/fsutil"
	"github.com/opengeos/qgis-plugin-kit/internal/logger"
	"github.com/opengeos/qgis-plugin-kit/internal/metadata"
	"github.com/opengeos/qgis-plugin-kit/internal/service/installer"
)

var (
	errUpdaterAlreadyRunning = errors.New("the updater is already running")
	errUpdateFolderRequired  = errors.New("update folder URL must be provided")
	errEmptyDescription      = errors.New("update description is empty")
	errNoChecksum            = errors.New("checksum missing for file")
	errBadHTTPStatus         = errors.New("unexpected http status")
	errPathEscapesStaging    = errors.New("manifest path escapes staging directory")
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// PluginName overrides the configured plugin name when set.
	PluginName string
	// UpdateFolder overrides the configured update folder URL when set.
	UpdateFolder string
	// PluginsDir overrides the resolved plugin-search directory when set.
	PluginsDir string
}

// runner holds the mutable state and helpers for a single update execution.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type runner struct {
	description        *Description      // Remote manifest describing the release.
	cfg                *config.Config    // Settings loaded from YAML, with flag overrides applied.
	installDir         string            // Installed plugin directory being updated.
	localVersion       string            // Version of the installed plugin, empty when not installed.
	markerCreated      bool              // Whether this run owns the update marker file.
	filesToUpdate      []string          // Manifest files whose checksums differ locally.
	temporaryDirectory string            // Where new files are downloaded before apply.
	downloadedFiles    map[string]string // Relative path -> local temp path.
}

// Run executes the updater lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "plugin-updater")

	u, err := newRunner(ctx, opts)

	// Cleanup runs even when setup fails partway, so a marker written by
	// this run never outlives it.
	defer u.cleanup(ctx)

	if err != nil {
		return err
	}

	if err = u.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Updater run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Updater completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	u := &runner{
		downloadedFiles: make(map[string]string, defaultMapCapacity),
	}

	if IsUpdaterRunningNow(ctx) {
		return u, errUpdaterAlreadyRunning
	}

	updateMarker, err := os.Create(MarkerFilename)
	if err != nil {
		return u, err
	}

	u.markerCreated = true

	if err = updateMarker.Close(); err != nil {
		return u, err
	}

	if err = u.loadSettings(opts); err != nil {
		return u, err
	}

	if err = u.resolveInstallDir(opts); err != nil {
		return u, err
	}

	return u, nil
}

// loadSettings loads the YAML settings and applies flag overrides on top.
// A missing settings file is tolerated when the flags supply everything.
func (u *runner) loadSettings(opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		cfg = &config.Config{
			PluginName: config.DefaultPluginName,
			Timeout:    config.DefaultTimeout,
		}
	}

	if opts.PluginName != "" {
		cfg.PluginName = opts.PluginName
	}

	if opts.UpdateFolder != "" {
		cfg.UpdateFolder = opts.UpdateFolder
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	if cfg.UpdateFolder == "" {
		return errUpdateFolderRequired
	}

	u.cfg = cfg

	return nil
}

// resolveInstallDir locates the installed plugin directory being updated.
func (u *runner) resolveInstallDir(opts *Options) error {
	pluginsDir := opts.PluginsDir
	if pluginsDir == "" {
		var err error
		if pluginsDir, err = installer.DefaultPluginsDir(); err != nil {
			return err
		}
	}

	u.installDir = filepath.Join(pluginsDir, u.cfg.PluginName)

	return nil
}

// run executes the workflow for this runner instance:
// 1) Fetch the remote manifest.
// 2) Detect the installed version.
// 3) Compare versions and file checksums.
// 4) Download and apply changed files if needed.
func (u *runner) run(ctx context.Context) error {
	logger.Info(ctx, "Downloading the update description from the server")

	if err := u.fillUpdateDescription(ctx); err != nil {
		return fmt.Errorf("download update description: %w", err)
	}

	u.detectLocalVersion(ctx)

	versionUpdateNeeded := u.compareVersions(ctx)

	logger.Info(ctx, "Verifying checksums of installed files against the manifest")

	if err := u.validateChecksum(); err != nil {
		return fmt.Errorf("validate checksum: %w", err)
	}

	if !versionUpdateNeeded && len(u.filesToUpdate) == 0 {
		logger.Info(ctx, "No update required - version and files are current")
		return nil
	}

	u.logUpdateReasons(ctx, versionUpdateNeeded)

	logger.Info(ctx, "Downloading changed files to a temporary folder")

	if err := u.downloadFiles(ctx); err != nil {
		return fmt.Errorf("download update files: %w", err)
	}

	logger.Info(ctx, "Updating installed plugin files")

	if err := u.updateFiles(ctx); err != nil {
		return fmt.Errorf("update installed files: %w", err)
	}

	return nil
}

// detectLocalVersion reads the installed plugin's metadata version.
// An absent installation yields an empty version, which forces an update.
func (u *runner) detectLocalVersion(ctx context.Context) {
	if _, err := os.Stat(u.installDir); err != nil {
		logger.InfoKV(ctx, "Plugin is not installed yet", "path", u.installDir)
		return
	}

	u.localVersion = metadata.PluginVersion(u.installDir)
}

// compareVersions compares local vs remote versions and logs the decision.
func (u *runner) compareVersions(ctx context.Context) bool {
	remoteVersion := u.description.VersionNumber

	if u.localVersion == "" {
		logger.Info(ctx, "No local version detected, update needed")
		return true
	}

	if u.localVersion != remoteVersion {
		logger.InfoKV(ctx, "Version mismatch detected",
			"local", u.localVersion, "remote", remoteVersion)

		return true
	}

	logger.InfoKV(ctx, "Versions match, checking file integrity",
		"version", u.localVersion)

	// Still check checksums for integrity.
	return false
}

// logUpdateReasons logs the reasons why an update is needed.
func (u *runner) logUpdateReasons(ctx context.Context, versionUpdateNeeded bool) {
	if versionUpdateNeeded {
		logger.InfoKV(ctx, "Version update required", "reason", "version_mismatch")
	}

	if len(u.filesToUpdate) > 0 {
		logger.InfoKV(ctx, "File update required",
			"reason", "checksum_mismatch", "files", len(u.filesToUpdate))
	}
}

// fillUpdateDescription downloads and parses the remote update manifest.
func (u *runner) fillUpdateDescription(ctx context.Context) error {
	data, err := u.getFileFromServer(ctx, ManifestFilename)
	if err != nil {
		return err
	}

	var desc Description
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return err
	}

	u.description = &desc

	return nil
}

// getFileFromServer fetches a file from the update folder and returns its
// contents. The body is consumed in full before the per-request timeout is
// released; callers must never be handed a response whose body is still tied
// to a context this function is about to cancel.
func (u *runner) getFileFromServer(ctx context.Context, fileName string) ([]byte, error) {
	serverUpdateURL, err := url.Parse(u.cfg.UpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	serverUpdateURL.Path = path.Join(serverUpdateURL.Path, fileName)
	finalURL := serverUpdateURL.String()

	requestCtx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", finalURL, err)
	}

	return data, nil
}

// validateChecksum compares installed and manifest checksums and records
// every file that differs, so only those are downloaded later.
func (u *runner) validateChecksum() error {
	if u.description == nil || len(u.description.Files) == 0 {
		return errEmptyDescription
	}

	for _, fileName := range u.manifestFileNames() {
		needsUpdate, err := u.validateFileChecksum(fileName)
		if err != nil {
			return err
		}

		if needsUpdate {
			u.filesToUpdate = append(u.filesToUpdate, fileName)
		}
	}

	return nil
}

// manifestFileNames returns the manifest's file set in deterministic order.
func (u *runner) manifestFileNames() []string {
	names := make([]string, 0, len(u.description.Files))
	for name := range u.description.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// validateFileChecksum validates a single file's checksum against the manifest.
// Returns true if the file needs updating, false if it's up to date.
func (u *runner) validateFileChecksum(fileName string) (bool, error) {
	manifestChecksum, err := u.getManifestChecksum(fileName)
	if err != nil {
		return false, err
	}

	localChecksum, err := u.getLocalChecksum(fileName)
	if err != nil {
		return false, err
	}

	return !bytes.Equal(manifestChecksum, localChecksum), nil
}

// getManifestChecksum retrieves and decodes the manifest checksum for a file.
func (u *runner) getManifestChecksum(fileName string) ([]byte, error) {
	checksumBase64, ok := u.description.Files[fileName]
	if !ok {
		return nil, fmt.Errorf("checksum for %s: %w", fileName, errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(checksumBase64)
	if err != nil {
		return nil, err
	}

	return checksum, nil
}

// getLocalChecksum retrieves the installed file's checksum.
// Returns nil checksum if the file doesn't exist, forcing an update.
func (u *runner) getLocalChecksum(fileName string) ([]byte, error) {
	localPath := u.installedPath(fileName)

	if _, err := os.Stat(localPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return GetFileChecksum(localPath)
}

// installedPath maps a slash-separated manifest path to its installed location.
func (u *runner) installedPath(fileName string) string {
	return filepath.Join(u.installDir, filepath.FromSlash(fileName))
}

// downloadFiles downloads the files that failed checksum validation into a
// temporary directory.
func (u *runner) downloadFiles(ctx context.Context) error {
	temporaryDirectory, err := os.MkdirTemp("", "plugin-updater-")
	if err != nil {
		return err
	}

	u.temporaryDirectory = temporaryDirectory

	for _, fileName := range u.filesToUpdate {
		data, err := u.getFileFromServer(ctx, fileName)
		if err != nil {
			return err
		}

		outputFileName := filepath.Clean(filepath.Join(temporaryDirectory, filepath.FromSlash(fileName)))
		if !strings.HasPrefix(outputFileName, temporaryDirectory) {
			return fmt.Errorf("%s: %w", fileName, errPathEscapesStaging)
		}

		if err = os.MkdirAll(filepath.Dir(outputFileName), fsutil.DefaultDirPermissions); err != nil {
			return err
		}

		if err = os.WriteFile(outputFileName, data, DefaultFileMode); err != nil {
			return err
		}

		u.downloadedFiles[fileName] = outputFileName
		logger.InfoKV(ctx, "Downloaded file", "path", outputFileName)
	}

	return nil
}

// updateFiles applies downloaded files using go-update with checksum validation.
func (u *runner) updateFiles(ctx context.Context) error {
	for fileName, downloadedFileName := range u.downloadedFiles {
		logger.InfoKV(ctx, "Updating file", "file", fileName)

		data, err := os.ReadFile(filepath.Clean(downloadedFileName))
		if err != nil {
			return err
		}

		checksumBase64, ok := u.description.Files[fileName]
		if !ok {
			return fmt.Errorf("checksum for %s: %w", downloadedFileName, errNoChecksum)
		}

		checksum, err := base64.StdEncoding.DecodeString(checksumBase64)
		if err != nil {
			return err
		}

		targetPath := u.installedPath(fileName)
		if err = os.MkdirAll(filepath.Dir(targetPath), fsutil.DefaultDirPermissions); err != nil {
			return err
		}

		if _, err = os.Stat(targetPath); errors.Is(err, os.ErrNotExist) {
			var created *os.File
			if created, err = os.Create(targetPath); err != nil {
				return err
			}

			_ = created.Close()
		}

		options := goupdate.Options{
			TargetPath: targetPath,
			TargetMode: DefaultFileMode,
			Checksum:   checksum,
			Hash:       DefaultChecksumFunction,
		}

		if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
			return err
		}

		oldFileName := targetPath + ".old"
		if _, err = os.Stat(oldFileName); err == nil {
			_ = os.Remove(oldFileName)
		}
	}

	return nil
}

// cleanup removes temporary artifacts and, when this run owns it, the
// running marker. A marker left by a concurrent updater is never touched.
func (u *runner) cleanup(ctx context.Context) {
	if u.markerCreated {
		if _, err := os.Stat(MarkerFilename); err == nil {
			_ = os.Remove(MarkerFilename)
		}
	}

	if u.temporaryDirectory != "" {
		if _, err := os.Stat(u.temporaryDirectory); err == nil {
			_ = os.RemoveAll(u.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The updater has been stopped")
}
