// Package fsscan provides the content hasher and path filter used ahead of
// parsing: deciding which files are worth indexing and producing a stable
// digest of their bytes.
package fsscan

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is used when a Filter is constructed without an
// explicit size ceiling.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Filter decides whether a path should be indexed, based on exclude globs,
// a maximum file size, and the set of extensions the parser registry
// recognizes.
type Filter struct {
	excludes    []string
	maxFileSize int64
	extensions  map[string]bool
}

// NewFilter builds a Filter. extensions should contain the lowercase,
// dot-prefixed extensions (".go", ".py", ...) the parser registry claims;
// a nil or empty set means no extension-based rejection is performed.
func NewFilter(excludes []string, maxFileSize int64, extensions []string) *Filter {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(e)] = true
	}
	return &Filter{
		excludes:    excludes,
		maxFileSize: maxFileSize,
		extensions:  extSet,
	}
}

// ShouldIndex reports whether a path qualifies for indexing. path is
// expected to be relative to the project root, using '/' separators.
func (f *Filter) ShouldIndex(path string, size int64) bool {
	if f.matchesExclude(path) {
		return false
	}
	if size > f.maxFileSize {
		return false
	}
	if len(f.extensions) > 0 && !f.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return true
}

func (f *Filter) matchesExclude(path string) bool {
	normalized := filepath.ToSlash(path)
	if runtime.GOOS == "windows" {
		normalized = strings.ToLower(normalized)
	}
	for _, g := range f.excludes {
		if g == "" {
			continue
		}
		glob := g
		if runtime.GOOS == "windows" {
			glob = strings.ToLower(glob)
		}
		ok, err := doublestar.Match(glob, normalized)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// HashBytes returns the hex-encoded SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashFile streams a file's contents through SHA-256 without loading the
// whole file into memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
