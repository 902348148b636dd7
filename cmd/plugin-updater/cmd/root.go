package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opengeos/qgis-plugin-kit/internal/config"
	"github.com/opengeos/qgis-plugin-kit/internal/service/updater"
	"github.com/opengeos/qgis-plugin-kit/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// name overrides the configured plugin name.
	name string

	// rootCmd represents the base command for downloading and applying plugin updates.
	rootCmd = &cobra.Command{
		Use:   "plugin-updater [update-folder]",
		Short: "Download and apply plugin updates from the update folder",
		Long: `Check the update folder for a newer plugin release and apply it.

The updater fetches the update manifest published by plugin-packager,
compares the installed plugin's version and file checksums against it,
downloads changed files and replaces them in place. The update folder URL
can be provided as argument or loaded from the configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use update folder argument if provided, otherwise rely on config.
			var updateFolder string
			if len(args) > 0 {
				updateFolder = args[0]
			}

			options := &updater.Options{
				ConfigPath:   configPath,
				PluginName:   name,
				UpdateFolder: updateFolder,
			}

			return updater.Run(ctx, options)
		},
	}
)

// Execute runs the plugin-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&name, "name", "n", "", "override the configured plugin name")
}
