package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned by ResolveWithin for references that leave the base directory.
var ErrOutsideBase = errors.New("path escapes base directory")

// ResolveWithin joins a relative reference onto basePath and returns the
// absolute result. Absolute references, references that climb out of
// basePath and existing references that symlink out of it are rejected.
// The file is not required to exist.
func ResolveWithin(basePath, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Descriptors written on Windows use backslashes.
	normalized := strings.ReplaceAll(ref, "\\", "/")
	if filepath.IsAbs(normalized) || strings.HasPrefix(normalized, "/") {
		return "", fmt.Errorf("%q: absolute paths are not allowed", ref)
	}

	base, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve base directory: %w", err)
	}

	full := filepath.Join(base, filepath.FromSlash(normalized))
	rel, err := filepath.Rel(base, full)
	if err != nil {
		return "", fmt.Errorf("%q: %w", ref, err)
	}
	if escapes(rel) {
		return "", fmt.Errorf("%q: %w", ref, ErrOutsideBase)
	}

	// Symlinks are followed for references that exist. A missing target is
	// left for the caller to report.
	target, err := filepath.EvalSymlinks(full)
	if err != nil {
		return full, nil
	}
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return "", fmt.Errorf("cannot resolve base directory: %w", err)
	}
	rel, err = filepath.Rel(realBase, target)
	if err != nil || escapes(rel) {
		return "", fmt.Errorf("%q links to %s: %w", ref, target, ErrOutsideBase)
	}
	return full, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// EnsureDirectory creates dirPath if needed and checks it is a directory.
func EnsureDirectory(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("directory path cannot be empty")
	}

	info, err := os.Stat(dirPath)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", dirPath)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access path: %w", err)
	}

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	return nil
}
