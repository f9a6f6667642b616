// Package security guards the file operations the command line performs on
// user-supplied paths: destructive globs and merge outputs must stay inside
// the configured output directory, and names derived from dataset values must
// be safe file names.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CheckWithinDir returns an error when path, after cleaning and symlink
// resolution, is not dir or a descendant of dir. path need not exist; its
// nearest existing ancestor is resolved instead, so a symlinked parent
// cannot be used to escape.
func CheckWithinDir(path, dir string) error {
	canonicalPath, err := canonical(path)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path %s escapes %s", path, dir)
	}
	return nil
}

// canonical resolves path to an absolute path with every existing symlink
// component evaluated.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for parent := filepath.Dir(abs); ; parent = filepath.Dir(parent) {
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, _ := filepath.Rel(parent, abs)
			return filepath.Join(resolved, rel), nil
		}
		if parent == filepath.Dir(parent) {
			return abs, nil
		}
	}
}

// maxSlugLen bounds generated file name stems.
const maxSlugLen = 128

// FileSlug makes a lower-case file name stem from an arbitrary label: runs
// of characters other than ASCII letters and digits become one underscore,
// and leading or trailing underscores are dropped. An empty result is
// "unknown".
func FileSlug(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		if b.Len() >= maxSlugLen {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "unknown"
	}
	return out
}
