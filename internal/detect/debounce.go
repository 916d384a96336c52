package detect

import (
	"sync"
	"time"
)

// stopDebouncer holds a stop event for a fixed window before letting it
// take effect. A start observed inside the window discards the pending stop
// entirely; starts themselves are never delayed.
//
// Only one stop is ever pending: a newer stop replaces the timer of an
// older one, which is equivalent since the effect is identical.
type stopDebouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// newStopDebouncer creates a debouncer with the given hold-off window.
func newStopDebouncer(window time.Duration) *stopDebouncer {
	return &stopDebouncer{window: window}
}

// Stop schedules fire to run after the window unless cancelled by a start.
// With a zero window the stop fires synchronously.
func (d *stopDebouncer) Stop(fire func()) {
	if d.window <= 0 {
		fire()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		fire()
	})
}

// NoteStarted cancels any pending stop. Returns true if a stop was pending
// and has been discarded.
func (d *stopDebouncer) NoteStarted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	cancelled := d.timer.Stop()
	d.timer = nil
	return cancelled
}

// Flush cancels any pending stop without firing it. Used on shutdown.
func (d *stopDebouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
