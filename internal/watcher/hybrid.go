package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codelens-dev/codelens/internal/gitignore"
)

// HybridWatcher is the primary Watcher implementation: fsnotify when
// available, a PollingWatcher otherwise. Either source feeds a shared
// Debouncer, so the batching/coalescing behavior is identical
// regardless of which backend is active.
type HybridWatcher struct {
	mu sync.RWMutex

	nativeWatcher   *fsnotify.Watcher
	fallbackWatcher *PollingWatcher
	usingFsnotify   bool

	debouncer *Debouncer
	ignores   *gitignore.Matcher

	batches chan []FileEvent
	errs    chan error
	stopCh  chan struct{}
	stopped bool

	rootPath string
	opts     Options

	droppedBatches atomic.Uint64
}

// BatchWatcher is satisfied by HybridWatcher's batched Events(); see
// the note on BatchWatcher itself and Flatten in flatten.go.
var _ BatchWatcher = (*HybridWatcher)(nil)

// NewHybridWatcher builds a HybridWatcher, preferring fsnotify and
// falling back to polling when fsnotify can't initialize (e.g. no
// inotify instances available, or a filesystem that doesn't support
// it).
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow),
		ignores:   gitignore.New(),
		batches:   make(chan []FileEvent, opts.EventBufferSize),
		errs:      make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	for _, pattern := range opts.IgnorePatterns {
		h.ignores.AddPattern(pattern)
	}
	h.ignores.AddPattern(".codelens/")
	h.ignores.AddPattern(".codelens/**")

	if nw, err := fsnotify.NewWatcher(); err == nil {
		h.nativeWatcher = nw
		h.usingFsnotify = true
	} else {
		h.usingFsnotify = false
		h.fallbackWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start begins watching path, blocking for the lifetime of the watch.
func (h *HybridWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("stat watch root: %w", err)
	}
	h.rootPath = absPath

	h.reloadIgnoreMatcher()
	go h.drainDebouncer(ctx)

	if h.usingFsnotify {
		return h.runFsnotify(ctx)
	}
	return h.runPolling(ctx)
}

// runFsnotify drives the fsnotify event loop after seeding the watch
// list with every directory under root.
func (h *HybridWatcher) runFsnotify(ctx context.Context) error {
	if err := h.watchRecursively(h.rootPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.nativeWatcher.Events:
			if !ok {
				return nil
			}
			h.onFsnotifyEvent(event)
		case err, ok := <-h.nativeWatcher.Errors:
			if !ok {
				return nil
			}
			h.publishError(err)
		}
	}
}

// runPolling relays the fallback PollingWatcher's single-event stream
// into the shared debouncer, applying the same ignore/special-file
// classification fsnotify events go through.
func (h *HybridWatcher) runPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-h.fallbackWatcher.Events():
				if !ok {
					return
				}
				h.routeEvent(event.Path, event, false)
			case err, ok := <-h.fallbackWatcher.Errors():
				if !ok {
					return
				}
				h.publishError(err)
			}
		}
	}()

	return h.fallbackWatcher.Start(ctx, h.rootPath)
}

// onFsnotifyEvent translates a raw fsnotify.Event into the package's
// own FileEvent shape and routes it.
func (h *HybridWatcher) onFsnotifyEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	isDir := false
	if info, statErr := os.Stat(event.Name); statErr == nil {
		isDir = info.IsDir()
	}

	op, ok := translateFsnotifyOp(event.Op)
	if !ok {
		return
	}
	if op == OpCreate && isDir {
		_ = h.nativeWatcher.Add(event.Name)
	}

	h.routeEvent(relPath, FileEvent{Path: relPath, Operation: op, IsDir: isDir, Timestamp: time.Now()}, isDir)
}

// translateFsnotifyOp maps an fsnotify op bitmask to one Operation,
// reporting false for chmod and anything else this watcher ignores.
func translateFsnotifyOp(op fsnotify.Op) (Operation, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return OpCreate, true
	case op&fsnotify.Write != 0:
		return OpModify, true
	case op&fsnotify.Remove != 0:
		return OpDelete, true
	case op&fsnotify.Rename != 0:
		return OpRename, true
	default:
		return 0, false
	}
}

// routeEvent applies the ignore filter, recognizes .gitignore and
// config-file changes as reconciliation triggers rather than ordinary
// file events, and otherwise hands event to the debouncer. Both the
// fsnotify and polling backends funnel through this one path so a
// .gitignore edit behaves identically no matter which backend noticed
// it.
func (h *HybridWatcher) routeEvent(relPath string, event FileEvent, isDir bool) {
	if h.isExcluded(relPath, isDir) {
		return
	}

	if special, op := classifySpecialFile(relPath); special {
		if op == OpGitignoreChange {
			h.reloadIgnoreMatcher()
		}
		h.debouncer.Add(FileEvent{Path: relPath, Operation: op, Timestamp: time.Now()})
		return
	}

	h.debouncer.Add(event)
}

// classifySpecialFile reports whether relPath is a .gitignore or
// project config file, and if so which reconciliation operation it
// maps to.
func classifySpecialFile(relPath string) (special bool, op Operation) {
	switch filepath.Base(relPath) {
	case ".gitignore":
		return true, OpGitignoreChange
	case ".codelens.yaml", ".codelens.yml":
		return true, OpConfigChange
	default:
		return false, 0
	}
}

// watchRecursively registers root and every non-ignored subdirectory
// with the fsnotify watcher.
func (h *HybridWatcher) watchRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(h.rootPath, path)
		if relPath == "." {
			return h.nativeWatcher.Add(path)
		}
		if h.isExcludedDir(relPath) {
			return filepath.SkipDir
		}
		return h.nativeWatcher.Add(path)
	})
}

// isExcludedDir reports whether a directory should be skipped when
// seeding the fsnotify watch list.
func (h *HybridWatcher) isExcludedDir(relPath string) bool {
	if strings.HasPrefix(relPath, ".git") || relPath == ".git" {
		return true
	}
	if strings.HasPrefix(relPath, ".codelens") || relPath == ".codelens" {
		return true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ignores.Match(relPath, true)
}

// isExcluded reports whether relPath should be dropped rather than
// reaching the debouncer.
func (h *HybridWatcher) isExcluded(relPath string, isDir bool) bool {
	if relPath == "." || relPath == "" {
		return true
	}
	if strings.HasPrefix(relPath, ".git/") || relPath == ".git" {
		return true
	}
	if strings.HasPrefix(relPath, ".codelens/") || relPath == ".codelens" {
		return true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ignores.Match(relPath, isDir)
}

// reloadIgnoreMatcher rebuilds the gitignore matcher from the
// watcher's configured patterns plus every .gitignore file found under
// root, root's own included.
func (h *HybridWatcher) reloadIgnoreMatcher() {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := gitignore.New()
	for _, pattern := range h.opts.IgnorePatterns {
		m.AddPattern(pattern)
	}
	m.AddPattern(".codelens/")
	m.AddPattern(".codelens/**")

	rootGitignore := filepath.Join(h.rootPath, ".gitignore")
	if err := m.AddFromFile(rootGitignore, ""); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load root .gitignore",
			slog.String("path", rootGitignore),
			slog.String("error", err.Error()))
	}

	_ = filepath.WalkDir(h.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping directory in gitignore scan",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() || d.Name() != ".gitignore" || path == rootGitignore {
			return nil
		}
		base, _ := filepath.Rel(h.rootPath, filepath.Dir(path))
		if err := m.AddFromFile(path, base); err != nil {
			slog.Warn("failed to read nested .gitignore",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})

	h.ignores = m
}

// drainDebouncer forwards coalesced batches from the debouncer to this
// watcher's own output channel.
func (h *HybridWatcher) drainDebouncer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case batch, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) == 0 {
				continue
			}
			h.publishBatch(batch)
		}
	}
}

// publishBatch delivers batch on the events channel, counting and
// logging a drop if the buffer is full rather than blocking.
func (h *HybridWatcher) publishBatch(batch []FileEvent) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.batches <- batch:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

// DroppedBatches returns the number of event batches dropped because
// the output buffer was full.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

// publishError delivers err on the errors channel, dropping it
// silently if the buffer is full (errors are best-effort diagnostics,
// never required for correctness).
func (h *HybridWatcher) publishError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}

	select {
	case h.errs <- err:
	default:
	}
}

// Stop halts the watcher and releases its resources. Safe to call more
// than once.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	h.stopped = true
	close(h.stopCh)

	h.debouncer.Stop()
	if h.usingFsnotify && h.nativeWatcher != nil {
		_ = h.nativeWatcher.Close()
	}
	if h.fallbackWatcher != nil {
		_ = h.fallbackWatcher.Stop()
	}

	close(h.batches)
	close(h.errs)
	return nil
}

// Events returns the channel of debounced event batches.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.batches
}

// Errors returns the channel of non-fatal watcher errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errs
}

// IsHealthy reports whether the watcher is still running.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}

// WatcherType reports which backend is active: "fsnotify" or
// "polling".
func (h *HybridWatcher) WatcherType() string {
	if h.usingFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root directory being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
