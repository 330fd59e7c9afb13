package events

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// RegionDebounceWindow is the quiet period after the last raw viewport
// change before regionChanged fires.
const RegionDebounceWindow = 200 * time.Millisecond

// Debouncer collapses bursts of Trigger calls into a single delayed call of
// fire carrying the last value. The pending timer is explicit state: every
// Trigger replaces it, Cancel stops it, and a timer that was replaced or
// cancelled never calls fire even if it had already expired.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	fire    func(T)
	timer   *clock.Timer
	gen     uint64
	pending bool
	last    T
}

// NewDebouncer creates a Debouncer. A nil clock uses the wall clock.
func NewDebouncer[T any](clk clock.Clock, window time.Duration, fire func(T)) *Debouncer[T] {
	if clk == nil {
		clk = clock.New()
	}
	return &Debouncer[T]{clock: clk, window: window, fire: fire}
}

// Trigger records v and restarts the quiet window. It reports whether an
// earlier pending value was superseded.
func (d *Debouncer[T]) Trigger(v T) (coalesced bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	coalesced = d.pending
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.last = v
	d.pending = true
	d.timer = d.clock.AfterFunc(d.window, func() { d.expire(gen) })
	return coalesced
}

// Cancel discards the pending value, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	var zero T
	d.last = zero
}

// Pending reports whether a value is waiting for the window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.last
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fire(v)
}
