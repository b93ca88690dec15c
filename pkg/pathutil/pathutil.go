// Package pathutil provides the small path-manipulation helpers consumed by
// include resolution and the built-in __FILE__ / __FILENAME__ tokens.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Dirname returns the directory portion of p.
func Dirname(p string) string {
	return filepath.Dir(p)
}

// Basename returns the final path element of p. When keepExt is false, the
// file extension is stripped.
func Basename(p string, keepExt bool) string {
	base := filepath.Base(p)
	if keepExt {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// Join joins two path segments with the OS-appropriate separator.
func Join(a, b string) string {
	return filepath.Join(a, b)
}

// IsRooted reports whether p is an absolute path.
func IsRooted(p string) bool {
	return filepath.IsAbs(p)
}

// Cwd returns the process's current working directory, or "" on failure.
func Cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}
