// Package watcher feeds the incremental indexer's event queue: it
// watches a project root for file changes, debounces rapid bursts from
// editors and git operations into single coalesced batches, and
// classifies .gitignore and config file edits so the caller can
// reconcile the index rather than just reindex the changed file itself.
//
// HybridWatcher is the primary implementation: fsnotify when it can
// initialize, falling back to PollingWatcher's directory-snapshot diff
// when it can't (network mounts, some container volume drivers). Its
// debouncer coalesces events into batches, so Flatten adapts it to the
// single-event Watcher contract that callers like indexwalk.Watch
// expect.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	hw, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	w := watcher.Flatten(hw)
//	defer w.Stop()
//
//	// Start blocks until ctx is cancelled or Stop is called.
//	go func() { _ = w.Start(ctx, "/path/to/project") }()
//
//	for event := range w.Events() {
//	    switch event.Operation {
//	    case watcher.OpCreate, watcher.OpModify, watcher.OpDelete:
//	        // reindex event.Path
//	    case watcher.OpGitignoreChange, watcher.OpConfigChange:
//	        // reconcile the index against the new exclude rules
//	    }
//	}
package watcher
