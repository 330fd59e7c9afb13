// Package overlay keeps the id → engine handle tables owned by an adapter.
package overlay

import "sort"

// Registry maps caller-assigned overlay ids to backend-native handles.
// Putting an id that already exists destroys the previous handle first, so
// an id is never rendered twice. Registry is not safe for concurrent use;
// the owning adapter serialises access.
type Registry[H any] struct {
	items   map[string]H
	destroy func(H)
}

// NewRegistry creates a Registry. destroy detaches a handle from its
// engine and may be nil.
func NewRegistry[H any](destroy func(H)) *Registry[H] {
	return &Registry[H]{items: make(map[string]H), destroy: destroy}
}

// Put stores h under id, replacing any previous handle.
func (r *Registry[H]) Put(id string, h H) {
	r.Remove(id)
	r.items[id] = h
}

// Remove destroys and forgets the handle stored under id. Unknown ids are ignored.
func (r *Registry[H]) Remove(id string) bool {
	h, ok := r.items[id]
	if !ok {
		return false
	}
	delete(r.items, id)
	if r.destroy != nil {
		r.destroy(h)
	}
	return true
}

// Get returns the handle stored under id.
func (r *Registry[H]) Get(id string) (H, bool) {
	h, ok := r.items[id]
	return h, ok
}

// Len returns the number of stored handles.
func (r *Registry[H]) Len() int {
	return len(r.items)
}

// IDs returns the stored ids in lexical order.
func (r *Registry[H]) IDs() []string {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear destroys every handle.
func (r *Registry[H]) Clear() {
	for id := range r.items {
		r.Remove(id)
	}
}
