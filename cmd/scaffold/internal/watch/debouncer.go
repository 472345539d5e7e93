// Package watch rebuilds a scaffold whenever its blueprint file changes.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of triggers into one call. Editors often write
// a file several times per save (truncate, write, rename), and each burst
// should cause a single rebuild.
type Debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	window  time.Duration
	fn      func()
	pending bool
	stopped bool
}

// NewDebouncer creates a debouncer that calls fn once window has passed
// without a new trigger.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules a call, restarting the window if one is pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	// A timer stopped too late still runs; pending is already false then.
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	if d.fn != nil {
		d.fn()
	}
}

// Stop cancels a pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) isPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
