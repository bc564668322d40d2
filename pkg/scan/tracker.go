package scan

import (
	"sort"
	"sync"
	"time"

	"github.com/auralens/auralens/internal/clock"
)

// SeenTracker remembers which labels were recently announced so the same
// object is not narrated every cycle. Entries expire on their own after
// the cool-down passes.
type SeenTracker struct {
	clk clock.Clock

	mu      sync.Mutex
	entries map[string]*seenEntry
}

type seenEntry struct {
	timer       clock.Timer
	announcedAt time.Time
}

// NewSeenTracker creates an empty tracker.
func NewSeenTracker(clk clock.Clock) *SeenTracker {
	return &SeenTracker{
		clk:     clk,
		entries: make(map[string]*seenEntry),
	}
}

// Has reports whether label is currently suppressed.
func (t *SeenTracker) Has(label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[label]
	return ok
}

// Add suppresses label for ttl. Adding a label that is already present is
// a no-op: the existing cool-down is not extended.
func (t *SeenTracker) Add(label string, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[label]; ok {
		return
	}

	t.entries[label] = &seenEntry{
		announcedAt: t.clk.Now(),
		timer: t.clk.AfterFunc(ttl, func() {
			t.Remove(label)
		}),
	}
}

// Remove forgets label immediately, cancelling its pending expiry.
func (t *SeenTracker) Remove(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[label]
	if !ok {
		return
	}
	entry.timer.Stop()
	delete(t.entries, label)
}

// Clear forgets every label and cancels all pending expiries. Clearing an
// empty tracker is a no-op.
func (t *SeenTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for label, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, label)
	}
}

// Labels returns the suppressed labels in sorted order.
func (t *SeenTracker) Labels() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	labels := make([]string, 0, len(t.entries))
	for label := range t.entries {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Len returns the number of suppressed labels.
func (t *SeenTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
