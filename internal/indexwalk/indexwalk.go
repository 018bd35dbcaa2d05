// Package indexwalk wires a filesystem watcher to the ingest pipeline:
// it drains coalesced file events and reindexes the affected paths one
// at a time, skipping editor temp-file noise, and reconciles the whole
// tree when a .gitignore or config file change widens or narrows what's
// excluded.
package indexwalk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codelens-dev/codelens/internal/gitignore"
	"github.com/codelens-dev/codelens/internal/ingest"
	"github.com/codelens-dev/codelens/internal/watcher"
)

// ChangeFunc is called once per reindexed path, after the watcher's own
// debounce/coalescing has settled.
type ChangeFunc func(path string, outcome ingest.ReindexOutcome, err error)

// tempSuffixes are editor swap/backup suffixes excluded from reindexing,
// per the incremental indexer's temp-file filtering rule.
var tempSuffixes = []string{"~", ".swp", ".swo", ".swx", ".tmp", ".bak"}

// isTempFile reports whether path looks like editor scratch output
// rather than a real source change.
func isTempFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if strings.HasPrefix(base, ".") && strings.HasSuffix(base, ".swp") {
		return true
	}
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// Watch starts w on root and drains its event stream, calling
// pipeline.ReindexPath for each non-temp path and reporting the outcome
// via onChange. It blocks until ctx is cancelled or the watcher's
// channels close; cancellation stops new events from being accepted but
// lets an in-flight reindex finish before Watch returns.
//
// w.Start runs for the lifetime of the watch (it only returns once the
// watcher stops), so it is launched on its own goroutine here rather than
// awaited before the event loop starts.
func Watch(ctx context.Context, pipeline *ingest.Pipeline, w watcher.Watcher, root string, onChange ChangeFunc) error {
	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(ctx, root) }()
	defer w.Stop()

	events := w.Events()
	errs := w.Errors()
	reconciler := newGitignoreReconciler()

	for {
		select {
		case err := <-startErr:
			if err != nil && err != context.Canceled {
				return err
			}
			startErr = nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if isTempFile(ev.Path) {
				continue
			}
			if ev.Operation == watcher.OpGitignoreChange || ev.Operation == watcher.OpConfigChange {
				outcome, err := reconciler.reconcile(pipeline, root, ev.Path, ev.Operation)
				if onChange != nil {
					onChange(ev.Path, outcome, err)
				}
				continue
			}
			outcome, err := pipeline.ReindexPath(root, ev.Path)
			if onChange != nil {
				onChange(ev.Path, outcome, err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if onChange != nil {
				onChange("", "", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// gitignoreReconciler remembers the last-seen content of every
// .gitignore file Watch has reconciled, so a repeat OpGitignoreChange
// reconciles only the lines that actually changed instead of re-walking
// the whole tree on every edit.
type gitignoreReconciler struct {
	mu   sync.Mutex
	seen map[string]string
}

func newGitignoreReconciler() *gitignoreReconciler {
	return &gitignoreReconciler{seen: make(map[string]string)}
}

// reconcile handles a .gitignore or config file change at relPath. A
// config change always triggers a full resync, since it may have
// altered the ingest pipeline's own exclude globs in ways this package
// can't introspect. A .gitignore change is diffed against its prior
// content: newly added patterns drop any already-indexed path they now
// cover, and newly removed patterns send the tree back through the
// pipeline's filter to pick up paths that were previously excluded.
func (g *gitignoreReconciler) reconcile(pipeline *ingest.Pipeline, root, relPath string, op watcher.Operation) (ingest.ReindexOutcome, error) {
	if op == watcher.OpConfigChange {
		return resync(pipeline, root)
	}

	newContent := readOrEmpty(filepath.Join(root, relPath))

	g.mu.Lock()
	oldContent := g.seen[relPath]
	g.seen[relPath] = newContent
	g.mu.Unlock()

	added, removed := gitignore.DiffPatterns(oldContent, newContent)
	if len(added) == 0 && len(removed) == 0 {
		return ingest.OutcomeUnchanged, nil
	}

	dropped, err := g.dropNewlyIgnored(pipeline, added)
	if err != nil {
		return "", err
	}

	restored := 0
	if len(removed) > 0 {
		restored, err = g.restoreNewlyUnignored(pipeline, root, newContent)
		if err != nil {
			return "", err
		}
	}

	switch {
	case dropped > 0:
		return ingest.OutcomeRemoved, nil
	case restored > 0:
		return ingest.OutcomeCreated, nil
	default:
		return ingest.OutcomeUnchanged, nil
	}
}

// dropNewlyIgnored removes any already-indexed path that one of the
// newly added gitignore patterns now covers.
func (g *gitignoreReconciler) dropNewlyIgnored(pipeline *ingest.Pipeline, added []string) (int, error) {
	if len(added) == 0 {
		return 0, nil
	}
	storedPaths, err := pipeline.Store.AllPaths()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, path := range storedPaths {
		if !gitignore.MatchesAnyPattern(path, added) {
			continue
		}
		if err := pipeline.Store.DeleteFile(path); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// restoreNewlyUnignored walks root for files the current .gitignore
// content (after removing patterns) no longer excludes, and reindexes
// any that aren't already in the store.
func (g *gitignoreReconciler) restoreNewlyUnignored(pipeline *ingest.Pipeline, root, gitignoreContent string) (int, error) {
	matcher := gitignore.New()
	for _, pattern := range gitignore.ParsePatterns(gitignoreContent) {
		matcher.AddPattern(pattern)
	}

	count := 0
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher.Match(rel, false) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil || !pipeline.Filter.ShouldIndex(rel, info.Size()) {
			return nil
		}
		existing, lookupErr := pipeline.Store.FileByPath(rel)
		if lookupErr != nil || existing != nil {
			return nil
		}
		outcome, reindexErr := pipeline.ReindexPath(root, rel)
		if reindexErr == nil && outcome == ingest.OutcomeCreated {
			count++
		}
		return nil
	})
	return count, walkErr
}

func resync(pipeline *ingest.Pipeline, root string) (ingest.ReindexOutcome, error) {
	report, err := pipeline.IndexPaths(context.Background(), root)
	if err != nil {
		return "", err
	}
	switch {
	case report.Removed > 0:
		return ingest.OutcomeRemoved, nil
	case report.Created > 0:
		return ingest.OutcomeCreated, nil
	case report.Updated > 0:
		return ingest.OutcomeUpdated, nil
	default:
		return ingest.OutcomeUnchanged, nil
	}
}

func readOrEmpty(path string) string {
	body, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(body)
}
