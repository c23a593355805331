// Package debounce delays a value until its input has been quiet for a window.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the search-box debounce interval.
const DefaultWindow = 500 * time.Millisecond

// Debouncer delivers only the latest value pushed, once no newer value has
// arrived for the window. Each Push cancels the pending delivery.
type Debouncer[T any] struct {
	window time.Duration
	emit   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	gen     uint64
	armed   bool
	stopped bool
}

func New[T any](window time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{window: window, emit: emit}
}

func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = v
	d.armed = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// Flush delivers the pending value now, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	v, ok := d.take()
	d.mu.Unlock()

	if ok {
		d.emit(v)
	}
}

// Stop drops the pending value and ignores later pushes.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

// fire ignores timers superseded by a later Push.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	v, ok := d.take()
	d.mu.Unlock()

	if ok {
		d.emit(v)
	}
}

// take must be called with mu held.
func (d *Debouncer[T]) take() (T, bool) {
	var zero T
	if !d.armed || d.stopped {
		return zero, false
	}
	v := d.pending
	d.pending = zero
	d.armed = false
	return v, true
}
