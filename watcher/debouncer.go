// Package watcher turns raw file system notifications into batched change
// events suitable for incremental re-analysis.
package watcher

import (
	"sync"
	"time"
)

// ChangeKind classifies what happened to a path.
type ChangeKind int

const (
	KindCreate ChangeKind = iota
	KindModify
	KindRemove
	KindRename
)

func (k ChangeKind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindModify:
		return "modify"
	case KindRemove:
		return "remove"
	case KindRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one debounced file system change.
type Change struct {
	Path string
	Kind ChangeKind
}

// DefaultDebounceInterval is the quiet period before a batch is emitted.
const DefaultDebounceInterval = 100 * time.Millisecond

// Debouncer accumulates changes and emits them as a batch once the file
// system has been quiet for the configured interval. Repeated changes to
// the same path collapse into a single entry.
type Debouncer struct {
	interval time.Duration
	changes  map[string]Change
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []Change
}

// NewDebouncer creates a debouncer. A non-positive interval falls back to
// DefaultDebounceInterval.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	return &Debouncer{
		interval: interval,
		changes:  make(map[string]Change),
		output:   make(chan []Change, 16),
	}
}

// Output returns the channel that receives batched changes.
func (d *Debouncer) Output() <-chan []Change {
	return d.output
}

// Record adds a change to the current window, restarting the quiet timer.
// Successive changes to one path merge: a modify after a create stays a
// create, a remove wins over everything before it, and a create after a
// remove collapses to a modify since the file was replaced in place.
func (d *Debouncer) Record(path string, kind ChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.changes[path]; ok {
		kind = mergeKinds(prev.Kind, kind)
	}
	d.changes[path] = Change{Path: path, Kind: kind}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

func mergeKinds(prev, next ChangeKind) ChangeKind {
	switch {
	case next == KindRemove:
		return KindRemove
	case prev == KindCreate && next == KindModify:
		return KindCreate
	case prev == KindRemove && next == KindCreate:
		return KindModify
	default:
		return next
	}
}

// flush emits the accumulated batch and resets the window.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.changes) == 0 {
		return
	}

	batch := make([]Change, 0, len(d.changes))
	for _, change := range d.changes {
		batch = append(batch, change)
	}

	d.changes = make(map[string]Change)
	d.output <- batch
}
