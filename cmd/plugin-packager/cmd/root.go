package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opengeos/qgis-plugin-kit/internal/config"
	"github.com/opengeos/qgis-plugin-kit/internal/service/packager"
	"github.com/opengeos/qgis-plugin-kit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// name is the plugin name used for the staging directory and archive.
	name string
	// sourceDir is the plugin source tree; defaults to ./<name> when empty.
	sourceDir string
	// outputDir is where the archive is written.
	outputDir string
	// noVersion omits the metadata version from the archive filename.
	noVersion bool
	// updateFolder, when set, also produces the update manifest.
	updateFolder string

	// rootCmd represents the base command for packaging a plugin source tree.
	rootCmd = &cobra.Command{
		Use:   "plugin-packager",
		Short: "Package a plugin source tree into a distributable zip archive",
		Long: `Package a QGIS plugin source tree into a distributable zip archive.

The source tree is copied into a temporary staging directory, build artifacts
and VCS metadata are pruned from the copy, and the result is zipped under a
single top-level directory named after the plugin. The archive name includes
the version read from metadata.txt unless --no-version is given.

With --update-folder an update manifest with per-file checksums is written
next to the archive and the settings are persisted for plugin-updater.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			source := sourceDir
			if source == "" {
				source = filepath.Join(".", name)
			}

			options := &packager.Options{
				ConfigPath:   configPath,
				Name:         name,
				SourceDir:    source,
				OutputDir:    outputDir,
				NoVersion:    noVersion,
				UpdateFolder: updateFolder,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the plugin-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&name, "name", "n", config.DefaultPluginName, "plugin name used for the archive and its top-level directory")
	rootCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "plugin source directory (defaults to ./<name>)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory the archive is written to")
	rootCmd.Flags().BoolVar(&noVersion, "no-version", false, "omit the metadata version from the archive filename")
	rootCmd.Flags().StringVarP(&updateFolder, "update-folder", "u", "", "URL where update artifacts will be uploaded; also writes the update manifest")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
