package metadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Filename is the conventional metadata file name inside a plugin source tree.
	Filename = "metadata.txt"

	// UnknownVersion is substituted when the metadata file or its version key is missing.
	// Packaging must still succeed without a version.
	UnknownVersion = "unknown"

	// versionKey is the only key the toolkit consumes mechanically.
	versionKey = "version"
)

// Parse reads key=value lines from r into a flat map.
// Section headers ([general]), comments and malformed lines are skipped.
// The first occurrence of a key wins.
func Parse(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		if _, exists := values[key]; exists {
			continue
		}

		values[key] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan metadata: %w", err)
	}

	return values, nil
}

// ParseFile reads and parses the metadata file at the provided path.
func ParseFile(path string) (map[string]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	return Parse(file)
}

// PluginVersion extracts the version value from the metadata file inside the
// provided plugin source directory. A missing file or missing version key is
// not an error: the literal UnknownVersion placeholder is returned instead.
func PluginVersion(sourceDir string) string {
	values, err := ParseFile(filepath.Join(sourceDir, Filename))
	if err != nil {
		return UnknownVersion
	}

	version := strings.TrimSpace(values[versionKey])
	if version == "" {
		return UnknownVersion
	}

	return version
}
