package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opengeos/qgis-plugin-kit/internal/config"
	"github.com/opengeos/qgis-plugin-kit/internal/service/installer"
	"github.com/opengeos/qgis-plugin-kit/internal/version"
)

var (
	// name is the plugin directory name under the plugin-search path.
	name string
	// sourceDir is the plugin source tree; defaults to ./<name> when empty.
	sourceDir string
	// removePlugin deletes the installed plugin instead of installing it.
	removePlugin bool
	// pluginsDir overrides the resolved plugin-search directory.
	pluginsDir string

	// rootCmd represents the base command for installing or removing a plugin.
	rootCmd = &cobra.Command{
		Use:   "plugin-installer",
		Short: "Install or remove a plugin under the QGIS profile plugins directory",
		Long: `Install a plugin source tree under the QGIS default-profile plugins
directory, or remove an installed plugin from it.

The target directory is resolved per platform (Linux, macOS, Windows).
Installing replaces any prior installation of the same name; removing a
plugin that was never installed is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			source := sourceDir
			if source == "" {
				source = filepath.Join(".", name)
			}

			options := &installer.Options{
				Name:       name,
				SourceDir:  source,
				Remove:     removePlugin,
				PluginsDir: pluginsDir,
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the plugin-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&name, "name", "n", config.DefaultPluginName, "plugin directory name under the plugins path")
	rootCmd.Flags().StringVarP(&sourceDir, "source", "s", "", "plugin source directory (defaults to ./<name>)")
	rootCmd.Flags().BoolVarP(&removePlugin, "remove", "r", false, "remove the installed plugin instead of installing")

	// Hidden override for tests and unusual profile layouts.
	rootCmd.Flags().StringVar(&pluginsDir, "plugins-dir", "", "override the resolved plugins directory")

	err := rootCmd.Flags().MarkHidden("plugins-dir")
	if err != nil {
		panic(err)
	}
}
