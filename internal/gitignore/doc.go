// Package gitignore implements gitignore-style path exclusion.
//
// It covers the pattern syntax described at
// https://git-scm.com/docs/gitignore:
//
//   - literal and glob patterns (*.log, temp/)
//   - wildcards (*, ?, **)
//   - rooted patterns (/build)
//   - negation (!important.log)
//   - directory-only patterns (build/)
//   - nested per-directory .gitignore scoping
//
// A Matcher is safe for concurrent use: its rules are guarded by a
// read/write mutex. The incremental indexer's watcher replaces its
// Matcher with a freshly built one when a .gitignore changes.
//
// Basic usage:
//
//	m := gitignore.New()
//	m.AddPattern("*.log")
//	m.AddPattern("!important.log")
//	m.AddPattern("/build/")
//
//	if m.Match("error.log", false) {
//	    // excluded from indexing
//	}
//
// Nested .gitignore files scope their rules to their own directory:
//
//	m.AddFromFile("/repo/.gitignore", "")
//	m.AddFromFile("/repo/src/.gitignore", "src")
//
// ParsePatterns, DiffPatterns, and MatchesAnyPattern support
// reconciling an existing index against a changed .gitignore without a
// full re-walk: DiffPatterns reports which lines were added or removed,
// and MatchesAnyPattern checks whether an already-indexed path is
// affected by that diff.
package gitignore
