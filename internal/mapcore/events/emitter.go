// Package events holds the per-adapter event table and the debouncer that
// coalesces viewport changes into regionChanged emissions.
package events

import (
	"sync"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

// Handler wraps an event callback. Handlers are compared by pointer, so the
// same *Handler registered twice occupies two slots and Off removes the first.
type Handler struct {
	fn func(domain.Event)
}

// NewHandler returns a Handler invoking fn.
func NewHandler(fn func(domain.Event)) *Handler {
	return &Handler{fn: fn}
}

// Handle invokes the callback. A nil Handler or callback does nothing.
func (h *Handler) Handle(ev domain.Event) {
	if h == nil || h.fn == nil {
		return
	}
	h.fn(ev)
}

// Emitter maps event names to ordered handler lists.
//
// Dispatch is synchronous on the emitting goroutine, in registration order.
// Clear advances the emitter's epoch; a dispatch that started under an
// older epoch stops before invoking any further handler.
type Emitter struct {
	mu       sync.Mutex
	handlers map[domain.EventName][]*Handler
	epoch    uint64
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[domain.EventName][]*Handler)}
}

// On appends h to the handlers of name. Unknown names and nil handlers are ignored.
func (e *Emitter) On(name domain.EventName, h *Handler) {
	if h == nil || !name.Valid() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = append(e.handlers[name], h)
}

// Off removes the first registration of h under name.
func (e *Emitter) Off(name domain.EventName, h *Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.handlers[name]
	for i, registered := range list {
		if registered == h {
			e.handlers[name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Count returns the number of handlers registered for name.
func (e *Emitter) Count(name domain.EventName) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[name])
}

// Epoch returns the current epoch.
func (e *Emitter) Epoch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch
}

// Clear drops every registration and advances the epoch.
func (e *Emitter) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = make(map[domain.EventName][]*Handler)
	e.epoch++
}

// Emit dispatches ev to the handlers registered under its name.
func (e *Emitter) Emit(ev domain.Event) {
	e.EmitAt(e.Epoch(), ev)
}

// EmitAt dispatches ev only while the emitter is still at epoch.
// It reports how many handlers were invoked.
func (e *Emitter) EmitAt(epoch uint64, ev domain.Event) int {
	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return 0
	}
	snapshot := append([]*Handler(nil), e.handlers[ev.Name()]...)
	e.mu.Unlock()

	invoked := 0
	for _, h := range snapshot {
		if !e.at(epoch) {
			break
		}
		h.Handle(ev)
		invoked++
	}
	return invoked
}

func (e *Emitter) at(epoch uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch == epoch
}
