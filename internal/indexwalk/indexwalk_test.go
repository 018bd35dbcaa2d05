package indexwalk

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelens-dev/codelens/internal/chunker"
	"github.com/codelens-dev/codelens/internal/fsscan"
	"github.com/codelens-dev/codelens/internal/ingest"
	"github.com/codelens-dev/codelens/internal/parser"
	"github.com/codelens-dev/codelens/internal/store"
	"github.com/codelens-dev/codelens/internal/watcher"
)

// fakeWatcher is a scripted watcher.Watcher: it replays a fixed slice of
// events once Start is called, then leaves its channels open until Stop.
type fakeWatcher struct {
	events  chan watcher.FileEvent
	errs    chan error
	started chan struct{}
	mu      sync.Mutex
	stopped bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events:  make(chan watcher.FileEvent, 16),
		errs:    make(chan error, 1),
		started: make(chan struct{}),
	}
}

func (f *fakeWatcher) Start(ctx context.Context, path string) error {
	close(f.started)
	return nil
}

func (f *fakeWatcher) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return nil
	}
	f.stopped = true
	close(f.events)
	close(f.errs)
	return nil
}

func (f *fakeWatcher) Events() <-chan watcher.FileEvent { return f.events }
func (f *fakeWatcher) Errors() <-chan error             { return f.errs }

func TestIsTempFileRecognizesEditorPatterns(t *testing.T) {
	assert.True(t, isTempFile("main.go~"))
	assert.True(t, isTempFile(".main.go.swp"))
	assert.True(t, isTempFile("#main.go#"))
	assert.True(t, isTempFile("notes.tmp"))
	assert.True(t, isTempFile("backup.bak"))
	assert.False(t, isTempFile("main.go"))
	assert.False(t, isTempFile("internal/store/store.go"))
}

func TestWatchSkipsTempFilesAndReindexesReal(t *testing.T) {
	root := t.TempDir()
	st, err := store.Open("", true)
	require.NoError(t, err)
	defer st.Close()

	reg, err := parser.DefaultRegistry()
	require.NoError(t, err)
	filter := fsscan.NewFilter(nil, 0, reg.RecognizedExtensions())
	pipeline := ingest.New(st, reg, filter, chunker.DefaultOptions())

	writeFile(t, root, "widget.go", "package widget\n\nfunc Widget() {}\n")

	fw := newFakeWatcher()
	var mu sync.Mutex
	var seen []string

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, pipeline, fw, root, func(path string, outcome ingest.ReindexOutcome, err error) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, path)
		})
	}()

	<-fw.started
	fw.events <- watcher.FileEvent{Path: "widget.go~", Operation: watcher.OpModify}
	fw.events <- watcher.FileEvent{Path: "widget.go", Operation: watcher.OpModify}

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"widget.go"}, seen)
}

func TestWatchReconcilesOnGitignoreChangeOnlyWhenAffected(t *testing.T) {
	root := t.TempDir()
	st, err := store.Open("", true)
	require.NoError(t, err)
	defer st.Close()

	reg, err := parser.DefaultRegistry()
	require.NoError(t, err)
	filter := fsscan.NewFilter(nil, 0, reg.RecognizedExtensions())
	pipeline := ingest.New(st, reg, filter, chunker.DefaultOptions())

	writeFile(t, root, "kept.go", "package kept\n\nfunc Kept() {}\n")
	writeFile(t, root, "vendor/dep.go", "package dep\n\nfunc Dep() {}\n")
	_, err = pipeline.IndexPaths(context.Background(), root)
	require.NoError(t, err)

	fw := newFakeWatcher()
	var mu sync.Mutex
	var outcomes []ingest.ReindexOutcome

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, pipeline, fw, root, func(path string, outcome ingest.ReindexOutcome, err error) {
			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, outcome)
		})
	}()

	<-fw.started

	// Adding "vendor/" should drop the already-indexed vendor/dep.go
	// from the store.
	writeFile(t, root, ".gitignore", "vendor/\n")
	fw.events <- watcher.FileEvent{Path: ".gitignore", Operation: watcher.OpGitignoreChange}
	time.Sleep(50 * time.Millisecond)

	// Appending an unrelated pattern that matches nothing indexed should
	// leave the store untouched.
	writeFile(t, root, ".gitignore", "vendor/\n*.unused\n")
	fw.events <- watcher.FileEvent{Path: ".gitignore", Operation: watcher.OpGitignoreChange}
	time.Sleep(50 * time.Millisecond)

	// Dropping "vendor/" again should restore vendor/dep.go from disk.
	writeFile(t, root, ".gitignore", "*.unused\n")
	fw.events <- watcher.FileEvent{Path: ".gitignore", Operation: watcher.OpGitignoreChange}
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, outcomes, 3)
	assert.Equal(t, ingest.OutcomeRemoved, outcomes[0])
	assert.Equal(t, ingest.OutcomeUnchanged, outcomes[1])
	assert.Equal(t, ingest.OutcomeCreated, outcomes[2])

	stats, err := st.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	fullPath := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
}
