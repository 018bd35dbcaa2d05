package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startHybrid launches w.Start in the background against dir and waits
// long enough for the watch list to be seeded.
func startHybrid(t *testing.T, w *HybridWatcher, dir string) (context.CancelFunc, chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		close(started)
		_ = w.Start(ctx, dir)
	}()
	<-started
	time.Sleep(150 * time.Millisecond)
	return cancel, started
}

func TestNewHybridWatcherProducesHealthyWatcher(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, w)
	defer func() { _ = w.Stop() }()

	assert.True(t, w.IsHealthy())
	assert.Contains(t, []string{"fsnotify", "polling"}, w.WatcherType())
}

func TestHybridWatcherReportsCreateModifyDelete(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(t *testing.T, dir string) string
		mutate  func(t *testing.T, path string)
		wantOp  Operation
	}{
		{
			name:    "create",
			prepare: func(t *testing.T, dir string) string { return filepath.Join(dir, "fresh.go") },
			mutate: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))
			},
			wantOp: OpCreate,
		},
		{
			name: "modify",
			prepare: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "existing.go")
				require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))
				return path
			},
			mutate: func(t *testing.T, path string) {
				time.Sleep(20 * time.Millisecond)
				require.NoError(t, os.WriteFile(path, []byte("package main\nfunc main() {}"), 0o644))
			},
			wantOp: OpModify,
		},
		{
			name: "delete",
			prepare: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "todelete.go")
				require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))
				return path
			},
			mutate: func(t *testing.T, path string) {
				require.NoError(t, os.Remove(path))
			},
			wantOp: OpDelete,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			target := tc.prepare(t, dir)

			opts := Options{DebounceWindow: 20 * time.Millisecond, EventBufferSize: 100}.WithDefaults()
			w, err := NewHybridWatcher(opts)
			require.NoError(t, err)
			defer func() { _ = w.Stop() }()

			cancel, _ := startHybrid(t, w, dir)
			defer cancel()

			tc.mutate(t, target)

			found := false
			timeout := time.After(2 * time.Second)
			for !found {
				select {
				case batch := <-w.Events():
					for _, e := range batch {
						if e.Operation == tc.wantOp && filepath.Base(e.Path) == filepath.Base(target) {
							found = true
						}
					}
				case err := <-w.Errors():
					t.Fatalf("unexpected watcher error: %v", err)
				case <-timeout:
					t.Fatalf("timed out waiting for %v on %s", tc.wantOp, target)
				}
			}
		})
	}
}

func TestHybridWatcherExcludesGitignorePatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.tmp\n"), 0o644))

	opts := Options{DebounceWindow: 30 * time.Millisecond, EventBufferSize: 100}.WithDefaults()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	cancel, _ := startHybrid(t, w, dir)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.tmp"), []byte("temp"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "included.go"), []byte("package main"), 0o644))

	gotIncluded := false
	timeout := time.After(1 * time.Second)
collect:
	for {
		select {
		case batch := <-w.Events():
			for _, e := range batch {
				assert.NotEqual(t, ".tmp", filepath.Ext(e.Path), "gitignored files must not be reported")
				if filepath.Base(e.Path) == "included.go" {
					gotIncluded = true
				}
			}
		case <-timeout:
			break collect
		}
	}
	assert.True(t, gotIncluded, "expected an event for the non-ignored file")
}

func TestHybridWatcherExcludesOwnIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	indexDir := filepath.Join(dir, ".codelens")
	require.NoError(t, os.MkdirAll(indexDir, 0o755))

	opts := Options{DebounceWindow: 30 * time.Millisecond, EventBufferSize: 100}.WithDefaults()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	cancel, _ := startHybrid(t, w, dir)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(indexDir, "index.db"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))

	gotSource := false
	timeout := time.After(1 * time.Second)
collect:
	for {
		select {
		case batch := <-w.Events():
			for _, e := range batch {
				assert.NotContains(t, e.Path, ".codelens", "the watcher's own store must never surface events")
				if filepath.Base(e.Path) == "main.go" {
					gotSource = true
				}
			}
		case <-timeout:
			break collect
		}
	}
	assert.True(t, gotSource, "expected an event for the source file")
}

func TestHybridWatcherFollowsNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	opts := Options{DebounceWindow: 30 * time.Millisecond, EventBufferSize: 100}.WithDefaults()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	cancel, _ := startHybrid(t, w, dir)
	defer cancel()

	subDir := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "sub.go"), []byte("package pkg"), 0o644))

	gotCreate := false
	timeout := time.After(2 * time.Second)
collect:
	for {
		select {
		case batch := <-w.Events():
			for _, e := range batch {
				if e.Operation == OpCreate {
					gotCreate = true
				}
			}
		case <-timeout:
			break collect
		}
	}
	assert.True(t, gotCreate, "expected a create event under the new subdirectory")
}

func TestHybridWatcherStopClosesChannels(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, w.Stop())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok, "events channel should be closed after Stop")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestHybridWatcherDroppedBatchesStartsAtZero(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Equal(t, uint64(0), w.DroppedBatches())
}

func TestHybridWatcherDroppedBatchesCountsOverflow(t *testing.T) {
	opts := Options{EventBufferSize: 1}.WithDefaults()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	w.publishBatch([]FileEvent{{Path: "one.go", Operation: OpCreate}})
	w.publishBatch([]FileEvent{{Path: "two.go", Operation: OpCreate}})
	w.publishBatch([]FileEvent{{Path: "three.go", Operation: OpCreate}})

	assert.Equal(t, uint64(2), w.DroppedBatches())
}
