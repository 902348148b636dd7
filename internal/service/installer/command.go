package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/opengeos/qgis-plugin-kit/internal/fsutil"
	"github.com/opengeos/qgis-plugin-kit/internal/logger"
)

// Options contains inputs for the installer entry point.
type Options struct {
	// Name is the plugin directory name under the plugin-search path.
	Name string
	// SourceDir is the local plugin source tree to install.
	SourceDir string
	// Remove deletes the installed plugin instead of installing it.
	Remove bool
	// PluginsDir overrides the resolved plugin-search directory when set.
	PluginsDir string
}

var (
	// errNameRequired is returned when the plugin name is empty.
	errNameRequired = errors.New("plugin name must be provided")
	// errSourceMissing is returned when the plugin source tree does not exist.
	errSourceMissing = errors.New("plugin source directory does not exist")
)

// hostProcessName is the lowercase substring identifying a running QGIS process.
const hostProcessName = "qgis"

// Run executes the install or remove workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "plugin-installer")

	if opts.Name == "" {
		return errNameRequired
	}

	pluginsDir := opts.PluginsDir
	if pluginsDir == "" {
		var err error
		if pluginsDir, err = DefaultPluginsDir(); err != nil {
			return err
		}
	}

	targetDir := filepath.Join(pluginsDir, opts.Name)

	if opts.Remove {
		return remove(ctx, opts.Name, targetDir)
	}

	return install(ctx, opts, pluginsDir, targetDir)
}

// remove deletes the installed plugin directory. A never-installed plugin is
// a reported no-op, not an error.
func remove(ctx context.Context, name, targetDir string) error {
	if _, err := os.Stat(targetDir); errors.Is(err, os.ErrNotExist) {
		logger.InfoKV(ctx, "Plugin is not installed, nothing to remove", "plugin", name)
		return nil
	} else if err != nil {
		return fmt.Errorf("stat installed plugin: %w", err)
	}

	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("remove installed plugin: %w", err)
	}

	logger.InfoKV(ctx, "Plugin removed", "plugin", name, "path", targetDir)

	return nil
}

// install copies the source tree under the plugin-search directory,
// replacing any prior installation of the same name.
func install(ctx context.Context, opts *Options, pluginsDir, targetDir string) error {
	if _, err := os.Stat(opts.SourceDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", opts.SourceDir, errSourceMissing)
		}

		return fmt.Errorf("stat source directory: %w", err)
	}

	warnIfHostRunning(ctx)

	if err := os.MkdirAll(pluginsDir, fsutil.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create plugins directory: %w", err)
	}

	// Clean overwrite, no merge with a previous installation.
	if err := os.RemoveAll(targetDir); err != nil {
		return fmt.Errorf("remove previous installation: %w", err)
	}

	if err := fsutil.CopyTree(opts.SourceDir, targetDir); err != nil {
		return fmt.Errorf("copy plugin tree: %w", err)
	}

	logger.InfoKV(ctx, "Plugin installed", "plugin", opts.Name, "path", targetDir)
	logger.Info(ctx, "Restart QGIS and enable the plugin via Plugins > Manage and Install Plugins")

	return nil
}

// warnIfHostRunning logs a warning when a QGIS process is detected. The
// install still proceeds: QGIS only rescans the plugins directory on restart,
// so overwriting files under a running instance is safe but ineffective.
func warnIfHostRunning(ctx context.Context) {
	processList, err := ps.Processes()
	if err != nil {
		logger.Debugf(ctx, "Unable to inspect process list: %v", err)
		return
	}

	for _, process := range processList {
		if strings.Contains(strings.ToLower(process.Executable()), hostProcessName) {
			logger.WarnKV(ctx, "QGIS appears to be running, restart it to pick up the new plugin",
				"process", process.Executable(), "pid", process.Pid())

			return
		}
	}
}
