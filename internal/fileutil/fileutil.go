// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrEmptyPath    = errors.New("path cannot be empty")
	ErrNotDirectory = errors.New("path exists and is not a directory")
)

// Directory permissions for output directories.
const DirPerm = 0o750

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "site2pdf" -> false (name)
//   - "./site2pdf.yaml" -> true (relative path)
//   - "/etc/site2pdf.yaml" -> true (absolute)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if dir == "" {
		return ErrEmptyPath
	}
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
		}
		return nil
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data next to path and renames it into place, so
// readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyPath
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// TempSibling returns a unique, not yet existing path in the directory of
// path. The caller owns the returned file name.
func TempSibling(path string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	if err := os.Remove(name); err != nil {
		return "", fmt.Errorf("reserving temp name: %w", err)
	}
	return name, nil
}

// RemoveListed deletes the regular files of dir named in names whose base
// name matches valid, and returns how many were removed. Names carrying a
// path separator and files that are already gone are skipped.
func RemoveListed(dir string, names []string, valid *regexp.Regexp) (int, error) {
	removed := 0
	for _, name := range names {
		if name == "" || IsFilePath(name) || !valid.MatchString(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if !FileExists(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

// maxSlugLength keeps generated file names well under common FS limits.
const maxSlugLength = 80

// Slug turns a URL path into a readable file name fragment: "/" becomes
// "home", a trailing .html or .htm is dropped and runs of unsafe characters
// collapse to one dash. The result is never empty.
func Slug(urlPath string) string {
	trimmed := strings.Trim(urlPath, "/")
	for _, ext := range []string{".html", ".htm"} {
		if strings.HasSuffix(strings.ToLower(trimmed), ext) {
			trimmed = trimmed[:len(trimmed)-len(ext)]
			break
		}
	}
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return "home"
	}

	var b strings.Builder
	lastDash := false
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	s := strings.Trim(b.String(), "-.")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-.")
	}
	if s == "" {
		return "page"
	}
	return s
}
