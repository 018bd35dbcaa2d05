package watcher

import "context"

// BatchWatcher is implemented by watchers whose debounce stage coalesces
// rapid changes into batches (HybridWatcher) rather than emitting one
// FileEvent per change.
type BatchWatcher interface {
	Start(ctx context.Context, path string) error
	Stop() error
	Events() <-chan []FileEvent
	Errors() <-chan error
}

// flattened adapts a BatchWatcher to the single-event Watcher contract by
// unpacking each batch into its constituent events, in order, so callers
// like indexwalk.Watch only ever handle one FileEvent at a time regardless
// of which underlying watcher implementation produced it.
type flattened struct {
	bw     BatchWatcher
	events chan FileEvent
}

// Flatten wraps bw so it satisfies Watcher.
func Flatten(bw BatchWatcher) Watcher {
	return &flattened{bw: bw, events: make(chan FileEvent, 64)}
}

// Start launches the flattening pump before delegating to bw.Start, since
// bw.Start blocks for the lifetime of the watch (per the Watcher contract)
// and the pump must already be draining bw.Events() when that loop starts
// producing batches.
func (f *flattened) Start(ctx context.Context, path string) error {
	go f.pump()
	return f.bw.Start(ctx, path)
}

func (f *flattened) pump() {
	defer close(f.events)
	for batch := range f.bw.Events() {
		for _, ev := range batch {
			f.events <- ev
		}
	}
}

func (f *flattened) Stop() error { return f.bw.Stop() }

func (f *flattened) Events() <-chan FileEvent { return f.events }

func (f *flattened) Errors() <-chan error { return f.bw.Errors() }
