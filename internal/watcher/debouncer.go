package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces a burst of events against the same path into one
// event, so a save-triggered sequence of OS notifications doesn't cause
// the indexer to reindex the same file several times in a row. Two
// events for the same path within the debounce window merge as:
//
//	CREATE + MODIFY -> CREATE   (still a brand-new file)
//	CREATE + DELETE -> dropped  (never existed as far as the index cares)
//	MODIFY + DELETE -> DELETE
//	DELETE + CREATE -> MODIFY   (the path was replaced, not removed)
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	buffered map[string]*coalescedEvent
	out      chan []FileEvent
	timer    *time.Timer
	stopCh   chan struct{}
	stopped  bool
}

// coalescedEvent tracks one path's merged-so-far event plus the
// operation it first arrived as, since the merge rules above depend on
// the first operation seen in the window, not just the latest one.
type coalescedEvent struct {
	event    FileEvent
	firstOp  Operation
	lastSeen time.Time
}

// NewDebouncer returns a Debouncer that batches events seen within
// window before emitting them on Output.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:   window,
		buffered: make(map[string]*coalescedEvent),
		out:      make(chan []FileEvent, 10),
		stopCh:   make(chan struct{}),
	}
}

// Add records event, merging it with any pending event already buffered
// for the same path, and (re)schedules the window's flush.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	now := time.Now()
	entry, tracked := d.buffered[event.Path]
	if !tracked {
		d.buffered[event.Path] = &coalescedEvent{event: event, firstOp: event.Operation, lastSeen: now}
		d.scheduleFlush()
		return
	}

	merged, keep := coalesceOps(*entry, event)
	if !keep {
		delete(d.buffered, event.Path)
	} else {
		entry.event = merged
		entry.lastSeen = now
	}
	d.scheduleFlush()
}

// coalesceOps applies the merge rules documented on Debouncer, given the
// operation a path's buffered event first arrived as (prior.firstOp) and
// the operation that just arrived (incoming.Operation). keep is false
// only for the CREATE+DELETE cancellation case, where the pair should
// vanish from the buffer entirely.
func coalesceOps(prior coalescedEvent, incoming FileEvent) (merged FileEvent, keep bool) {
	switch prior.firstOp {
	case OpCreate:
		switch incoming.Operation {
		case OpModify:
			return prior.event, true
		case OpDelete:
			return FileEvent{}, false
		}
	case OpDelete:
		if incoming.Operation == OpCreate {
			replaced := incoming
			replaced.Operation = OpModify
			return replaced, true
		}
	}
	return incoming, true
}

// scheduleFlush (re)arms the timer that fires flush after window.
func (d *Debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush drains the buffered events as one batch onto Output.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.buffered) == 0 {
		return
	}

	batch := make([]FileEvent, 0, len(d.buffered))
	for _, entry := range d.buffered {
		batch = append(batch, entry.event)
	}
	d.buffered = make(map[string]*coalescedEvent)

	select {
	case d.out <- batch:
	default:
		slog.Warn("debouncer output full, dropping batch", slog.Int("batch_size", len(batch)))
	}
}

// Output returns the channel of debounced event batches.
func (d *Debouncer) Output() <-chan []FileEvent {
	return d.out
}

// Stop halts the debouncer and closes Output. Safe to call more than
// once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.stopCh)
	close(d.out)
}
