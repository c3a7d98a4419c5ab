// Package capture is the content-context side of the client: it tracks
// the current text selection and turns a selection plus an optional
// comment into a note handed to the background context.
package capture

import "sync"

// SelectionTracker holds the most recent non-empty selection together
// with the page it came from. Absence of a selection is a Trigger with an
// empty Text, never an error.
type SelectionTracker struct {
	mu      sync.RWMutex
	current Trigger
}

// NewSelectionTracker starts with no selection.
func NewSelectionTracker() *SelectionTracker {
	return &SelectionTracker{}
}

// Update records a new selection and its page. Updates with empty text are
// ignored so a stray deselect does not clobber the cached value.
func (t *SelectionTracker) Update(sel Trigger) {
	if sel.Text == "" {
		return
	}
	t.mu.Lock()
	t.current = sel
	t.mu.Unlock()
}

// Current returns the freshest selection: a live text read wins when it
// yields something, the cache covers the rest. Page provenance always
// comes from the cached trigger. liveRead may be nil.
func (t *SelectionTracker) Current(liveRead func() string) Trigger {
	if liveRead != nil {
		if live := liveRead(); live != "" {
			t.mu.Lock()
			t.current.Text = live
			cur := t.current
			t.mu.Unlock()
			return cur
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Clear drops the cached selection.
func (t *SelectionTracker) Clear() {
	t.mu.Lock()
	t.current = Trigger{}
	t.mu.Unlock()
}
