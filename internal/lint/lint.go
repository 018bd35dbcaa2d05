// Package lint scans indexed file content against a fixed pattern table
// and optional user-supplied patterns.
package lint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codelens-dev/codelens/internal/store"
)

// Severity classifies how serious a pattern hit is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Pattern is one named, compiled check in the built-in table.
type Pattern struct {
	Name     string
	Regex    *regexp.Regexp
	Severity Severity
	Message  string
}

// BuiltinPatterns are the checks `lint --all` runs when no explicit
// pattern is given.
var BuiltinPatterns = []Pattern{
	{
		Name:     "todo-marker",
		Regex:    regexp.MustCompile(`(?i)\b(TODO|FIXME|XXX)\b`),
		Severity: SeverityInfo,
		Message:  "unresolved marker comment",
	},
	{
		Name:     "debug-print",
		Regex:    regexp.MustCompile(`\bconsole\.log\(|\bfmt\.Println\(\s*"DEBUG`),
		Severity: SeverityWarning,
		Message:  "debug output left in source",
	},
	{
		Name:     "empty-catch",
		Regex:    regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`),
		Severity: SeverityWarning,
		Message:  "empty catch block swallows errors",
	},
	{
		Name:     "hardcoded-secret",
		Regex:    regexp.MustCompile(`(?i)(api[_-]?key|secret|password)\s*[:=]\s*["'][^"']{8,}["']`),
		Severity: SeverityError,
		Message:  "possible hardcoded credential",
	},
}

// Hit is one pattern match against one line of one indexed file.
type Hit struct {
	Pattern  string
	Severity Severity
	Path     string
	Line     int
	Text     string
}

// Run scans every indexed file's content against patterns, line by line.
func Run(st *store.Store, patterns []Pattern) ([]Hit, error) {
	paths, err := st.AllPaths()
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, path := range paths {
		file, err := st.FileByPath(path)
		if err != nil || file == nil {
			continue
		}
		for lineNo, line := range strings.Split(file.Content, "\n") {
			for _, p := range patterns {
				if p.Regex.MatchString(line) {
					hits = append(hits, Hit{
						Pattern:  p.Name,
						Severity: p.Severity,
						Path:     path,
						Line:     lineNo + 1,
						Text:     strings.TrimSpace(line),
					})
				}
			}
		}
	}
	return hits, nil
}

// RunUserPattern compiles pattern as a case-insensitive regex and scans
// the index with it as a single warning-severity check.
func RunUserPattern(st *store.Store, pattern string) ([]Hit, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return Run(st, []Pattern{{
		Name:     "custom",
		Regex:    re,
		Severity: SeverityWarning,
		Message:  "matched user-supplied pattern",
	}})
}

// HasErrorSeverity reports whether any hit is error-severity, the
// condition `lint`'s exit code is keyed on.
func HasErrorSeverity(hits []Hit) bool {
	for _, h := range hits {
		if h.Severity == SeverityError {
			return true
		}
	}
	return false
}
