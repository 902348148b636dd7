package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// archiveSafetyNetPatterns re-excludes residual build artifacts at archive
// time even though pruning already removed them. Redundant, but it guarantees
// the archive invariant regardless of how the staging tree was produced.
//
//nolint:gochecknoglobals // Static pattern table compiled once at startup.
var archiveSafetyNetPatterns = compilePatterns([]string{
	"*.pyc",
	"__pycache__",
	".git",
})

// writeArchive zips the staged plugin directory into outputPath and returns
// the archive entry names in sorted order. Every entry sits under a single
// top-level directory named after the plugin.
func writeArchive(stagedDir, pluginName, outputPath string) ([]string, error) {
	archiveFile, err := os.Create(filepath.Clean(outputPath))
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	zipWriter := zip.NewWriter(archiveFile)

	entries, err := addTreeToArchive(zipWriter, stagedDir, pluginName)
	if err != nil {
		_ = zipWriter.Close()
		_ = archiveFile.Close()

		return nil, err
	}

	if err = zipWriter.Close(); err != nil {
		_ = archiveFile.Close()

		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	if err = archiveFile.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	sort.Strings(entries)

	return entries, nil
}

// addTreeToArchive walks the staged tree and writes every surviving file
// into the zip under the pluginName/ prefix.
func addTreeToArchive(zipWriter *zip.Writer, stagedDir, pluginName string) ([]string, error) {
	var entries []string

	err := filepath.WalkDir(stagedDir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if filePath == stagedDir {
			return nil
		}

		if entry.IsDir() {
			if matchesAny(archiveSafetyNetPatterns, entry.Name()) {
				return fs.SkipDir
			}

			return nil
		}

		relativePath, err := filepath.Rel(stagedDir, filePath)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", filePath, err)
		}

		entryName := path.Join(pluginName, filepath.ToSlash(relativePath))
		if entryExcluded(entryName) {
			return nil
		}

		if err = addFileToArchive(zipWriter, filePath, entryName); err != nil {
			return err
		}

		entries = append(entries, entryName)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// entryExcluded applies the safety-net patterns to every path segment.
func entryExcluded(entryName string) bool {
	for _, segment := range strings.Split(entryName, "/") {
		if matchesAny(archiveSafetyNetPatterns, segment) {
			return true
		}
	}

	return false
}

// addFileToArchive writes one file into the zip with deflate compression.
func addFileToArchive(zipWriter *zip.Writer, filePath, entryName string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", filePath, err)
	}

	header.Name = entryName
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", entryName, err)
	}

	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}

	_, err = io.Copy(writer, file)

	_ = file.Close()

	if err != nil {
		return fmt.Errorf("write zip entry %s: %w", entryName, err)
	}

	return nil
}

// humanReadableSize renders a byte count for operator-facing output.
func humanReadableSize(size int64) string {
	const unit = 1024

	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// zipEntryNames lists the entry names of an existing archive.
func zipEntryNames(archivePath string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	names := make([]string, 0, len(reader.File))
	for _, file := range reader.File {
		names = append(names, file.Name)
	}

	sort.Strings(names)

	return names, nil
}
