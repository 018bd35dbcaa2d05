package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher is the fsnotify fallback: it periodically re-walks a
// directory tree and diffs the snapshot against the previous one,
// rather than relying on OS-level change notifications. Slower and
// coarser-grained than fsnotify, but works on network mounts and
// filesystem drivers that don't deliver inotify/FSEvents/ReadDirectoryW
// events reliably.
type PollingWatcher struct {
	mu       sync.RWMutex
	interval time.Duration
	rootPath string
	baseline map[string]entrySnapshot
	events   chan FileEvent
	errors   chan error
	stopCh   chan struct{}
	stopped  bool
}

// entrySnapshot is the subset of fs.FileInfo a poll cycle compares
// against the prior cycle to decide whether a path changed.
type entrySnapshot struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// NewPollingWatcher returns a PollingWatcher that re-scans every
// interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		baseline: make(map[string]entrySnapshot),
		events:   make(chan FileEvent, 100),
		errors:   make(chan error, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start resolves path, takes an initial snapshot as the baseline, then
// polls on a ticker until ctx is cancelled or Stop is called.
func (p *PollingWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	p.rootPath = absPath

	initial, err := snapshotTree(p.rootPath)
	if err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}
	p.mu.Lock()
	p.baseline = initial
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.poll(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// Stop halts polling and closes both output channels. Safe to call
// more than once.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of detected file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of non-fatal scan errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// poll takes a fresh snapshot of the tree, diffs it against the stored
// baseline, emits one event per changed/created/deleted path, and
// becomes the new baseline.
func (p *PollingWatcher) poll() error {
	current, err := snapshotTree(p.rootPath)
	if err != nil {
		return fmt.Errorf("walk directory for changes: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for relPath, snap := range current {
		prev, existed := p.baseline[relPath]
		switch {
		case !existed:
			p.emitEvent(FileEvent{Path: relPath, Operation: OpCreate, IsDir: snap.isDir, Timestamp: time.Now()})
		case prev.modTime != snap.modTime || prev.size != snap.size:
			p.emitEvent(FileEvent{Path: relPath, Operation: OpModify, IsDir: snap.isDir, Timestamp: time.Now()})
		}
	}
	for relPath, snap := range p.baseline {
		if _, stillPresent := current[relPath]; !stillPresent {
			p.emitEvent(FileEvent{Path: relPath, Operation: OpDelete, IsDir: snap.isDir, Timestamp: time.Now()})
		}
	}

	p.baseline = current
	return nil
}

// snapshotTree walks root and records an entrySnapshot for every entry
// beneath it, keyed by path relative to root.
func snapshotTree(root string) (map[string]entrySnapshot, error) {
	tree := make(map[string]entrySnapshot)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil || relPath == "." {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		tree[relPath] = entrySnapshot{modTime: info.ModTime(), size: info.Size(), isDir: d.IsDir()}
		return nil
	})
	return tree, err
}

// emitEvent delivers event to the events channel, dropping it with a
// warning if the buffer is full. Callers must hold p.mu.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}
	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}
