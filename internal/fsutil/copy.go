package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// errSourceNotDirectory is returned when the copy source is not a directory.
var errSourceNotDirectory = errors.New("source is not a directory")

// DefaultDirPermissions is used when creating directories during a tree copy.
const DefaultDirPermissions os.FileMode = 0o755

// CopyTree recursively copies the directory tree rooted at src into dst.
// dst is created if it does not exist. The copy never links back to the
// source: regular file contents are duplicated byte by byte, so mutating the
// copy cannot affect the original tree. Irregular entries (sockets, device
// nodes) are skipped; symlinks are followed and copied as regular files.
func CopyTree(src, dst string) error {
	sourceInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if !sourceInfo.IsDir() {
		return fmt.Errorf("%s: %w", src, errSourceNotDirectory)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}

		targetPath := filepath.Join(dst, relativePath)

		if entry.IsDir() {
			if err = os.MkdirAll(targetPath, DefaultDirPermissions); err != nil {
				return fmt.Errorf("create directory %s: %w", targetPath, err)
			}

			return nil
		}

		// Follow symlinks, skip sockets and other irregular entries.
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return copyFile(path, targetPath, info.Mode().Perm())
	})
}

// copyFile duplicates a single regular file preserving its permission bits.
func copyFile(src, dst string, perm os.FileMode) error {
	sourceFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	targetFile, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err = io.Copy(targetFile, sourceFile); err != nil {
		_ = targetFile.Close()

		return fmt.Errorf("copy %s: %w", dst, err)
	}

	if err = targetFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	return nil
}
