package packager

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/opengeos/qgis-plugin-kit/internal/service/updater"
)

// buildDescription computes per-file checksums over the staged (already
// pruned) tree and assembles the update manifest published next to the
// archive. Manifest paths are slash-separated and relative to the plugin
// directory, matching the layout the updater writes into.
func buildDescription(stagedDir, pluginName, versionNumber, archiveName string) (*updater.Description, error) {
	desc := updater.NewDescription(pluginName, versionNumber)
	desc.ArchiveName = archiveName

	err := filepath.WalkDir(stagedDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(stagedDir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}

		checksum, err := updater.GetFileChecksum(path)
		if err != nil {
			return err
		}

		desc.Files[filepath.ToSlash(relativePath)] = base64.StdEncoding.EncodeToString(checksum)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return desc, nil
}

// saveDescription writes the manifest YAML to the provided path.
func saveDescription(path string, desc *updater.Description) error {
	contents, err := yaml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, updater.DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
