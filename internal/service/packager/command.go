package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opengeos/qgis-plugin-kit/internal/config"
	"github.com/opengeos/qgis-plugin-kit/internal/fsutil"
	"github.com/opengeos/qgis-plugin-kit/internal/logger"
	"github.com/opengeos/qgis-plugin-kit/internal/metadata"
	"github.com/opengeos/qgis-plugin-kit/internal/service/updater"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to persist settings (defaults to plugin-kit-settings.yaml).
	ConfigPath string
	// Name is the plugin name used for the staging directory and archive.
	Name string
	// SourceDir is the plugin source tree to package.
	SourceDir string
	// OutputDir is where the archive (and manifest, if any) is written.
	OutputDir string
	// NoVersion omits the metadata version from the archive filename.
	NoVersion bool
	// UpdateFolder, when set, also produces the update manifest and persists settings.
	UpdateFolder string
}

// packager assembles one archive from one source tree.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type packager struct {
	opts *Options
	// version is the plugin version read from metadata.txt, or the unknown placeholder.
	version string
	// stagingDir is the exclusively-owned temporary directory, removed unconditionally.
	stagingDir string
	// stagedDir is <stagingDir>/<name>, the pruned copy that gets archived.
	stagedDir string
	// outputPath is the deterministic archive location.
	outputPath string
}

var (
	// errNameRequired is returned when the plugin name is empty.
	errNameRequired = errors.New("plugin name must be provided")
	// errSourceMissing is returned when the plugin source tree does not exist.
	errSourceMissing = errors.New("plugin source directory does not exist")
)

// archiveListLimit caps how many archive entries are echoed back for operator verification.
const archiveListLimit = 10

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "plugin-packager")

	pkg, err := newPackager(opts)
	if err != nil {
		return err
	}

	if err = pkg.run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager validates the inputs before any side effect takes place.
func newPackager(opts *Options) (*packager, error) {
	if opts.Name == "" {
		return nil, errNameRequired
	}

	if _, err := os.Stat(opts.SourceDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", opts.SourceDir, errSourceMissing)
		}

		return nil, fmt.Errorf("stat source directory: %w", err)
	}

	version := metadata.PluginVersion(opts.SourceDir)

	return &packager{
		opts:       opts,
		version:    version,
		outputPath: filepath.Join(opts.OutputDir, ArchiveFilename(opts.Name, version, !opts.NoVersion)),
	}, nil
}

// ArchiveFilename computes the deterministic archive name:
// {name}-{version}.zip when the version is included, {name}.zip otherwise.
func ArchiveFilename(name, version string, includeVersion bool) string {
	if includeVersion {
		return fmt.Sprintf("%s-%s.zip", name, strings.TrimSpace(version))
	}

	return name + ".zip"
}

// run drives the copy, prune, archive pipeline and reports the result.
func (p *packager) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Packaging plugin",
		"plugin", p.opts.Name, "version", p.version, "source", p.opts.SourceDir)

	if err := p.stage(); err != nil {
		return err
	}

	// The staging directory never outlives the run, success or failure.
	defer func() {
		_ = os.RemoveAll(p.stagingDir)
	}()

	if err := Prune(p.stagedDir); err != nil {
		return fmt.Errorf("prune staging copy: %w", err)
	}

	entries, err := p.archive()
	if err != nil {
		return err
	}

	p.report(ctx, entries)

	if p.opts.UpdateFolder == "" {
		return nil
	}

	return p.publishManifest(ctx)
}

// stage copies the source tree into a collision-free temporary directory
// under a subdirectory named after the plugin. Copy, never move or link:
// packaging must not mutate the original plugin source.
func (p *packager) stage() error {
	stagingDir, err := os.MkdirTemp("", "plugin-packager-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	p.stagingDir = stagingDir
	p.stagedDir = filepath.Join(stagingDir, p.opts.Name)

	if err = fsutil.CopyTree(p.opts.SourceDir, p.stagedDir); err != nil {
		return fmt.Errorf("stage source tree: %w", err)
	}

	return nil
}

// archive replaces any prior archive at the output path and zips the staged tree.
func (p *packager) archive() ([]string, error) {
	// Overwrite semantics, not append.
	if _, err := os.Stat(p.outputPath); err == nil {
		if err = os.Remove(p.outputPath); err != nil {
			return nil, fmt.Errorf("remove previous archive: %w", err)
		}
	}

	entries, err := writeArchive(p.stagedDir, p.opts.Name, p.outputPath)
	if err != nil {
		return nil, fmt.Errorf("write archive: %w", err)
	}

	return entries, nil
}

// report logs the archive location, size and a sample of its entries.
func (p *packager) report(ctx context.Context, entries []string) {
	info, err := os.Stat(p.outputPath)
	if err != nil {
		logger.Warnf(ctx, "Unable to stat produced archive: %v", err)
		return
	}

	logger.InfoKV(ctx, "Archive created",
		"path", p.outputPath,
		"size", humanReadableSize(info.Size()),
		"entries", len(entries))

	limit := min(len(entries), archiveListLimit)
	for _, entry := range entries[:limit] {
		logger.Infof(ctx, "  %s", entry)
	}

	if len(entries) > limit {
		logger.Infof(ctx, "  ... and %d more", len(entries)-limit)
	}
}

// publishManifest writes the update manifest next to the archive and
// persists the settings consumed later by plugin-updater.
func (p *packager) publishManifest(ctx context.Context) error {
	desc, err := buildDescription(p.stagedDir, p.opts.Name, p.version, filepath.Base(p.outputPath))
	if err != nil {
		return fmt.Errorf("build update manifest: %w", err)
	}

	manifestPath := filepath.Join(p.opts.OutputDir, updater.ManifestFilename)
	if err = saveDescription(manifestPath, desc); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Update manifest created", "path", manifestPath)

	cfg := &config.Config{
		PluginName:   p.opts.Name,
		UpdateFolder: p.opts.UpdateFolder,
	}
	if err = config.Save(p.opts.ConfigPath, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	logger.Infof(ctx, "To publish the update, upload %s, %s and the plugin files at their relative paths to %s",
		filepath.Base(p.outputPath), updater.ManifestFilename, p.opts.UpdateFolder)

	return nil
}
