// Package provider selects the map backend and holds the adapter that is
// currently active for a caller.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samirrijal/voltfinder/internal/adapters/commercial"
	"github.com/samirrijal/voltfinder/internal/adapters/native"
	"github.com/samirrijal/voltfinder/internal/adapters/tile"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/mapcore"
)

// Kind names one of the three backends.
type Kind string

const (
	Leaflet Kind = tile.Provider
	Google  Kind = commercial.Provider
	RNMaps  Kind = native.Provider
)

// Kinds lists every backend.
var Kinds = []Kind{Leaflet, Google, RNMaps}

// ParseKind maps a configuration value to a Kind. Anything unrecognised
// selects Leaflet.
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Leaflet, Google, RNMaps:
		return k
	}
	return Leaflet
}

// Engines supplies the backend engines New draws from.
type Engines struct {
	Tile   tile.Engine
	Loader *commercial.Loader
	Views  native.ViewFactory
	Theme  string
}

// ErrNoEngine is returned when the engine for a Kind is not configured.
var ErrNoEngine = errors.New("map engine not configured")

// New builds an unmounted adapter of kind.
func New(kind Kind, e Engines, opts ...mapcore.Option) (ports.MapAdapter, error) {
	switch kind {
	case Google:
		if e.Loader == nil {
			return nil, fmt.Errorf("%s: %w", kind, ErrNoEngine)
		}
		return commercial.New(e.Loader, e.Theme, opts...), nil
	case RNMaps:
		if e.Views == nil {
			return nil, fmt.Errorf("%s: %w", kind, ErrNoEngine)
		}
		return native.New(e.Views, opts...), nil
	default:
		if e.Tile == nil {
			return nil, fmt.Errorf("%s: %w", Leaflet, ErrNoEngine)
		}
		return tile.New(e.Tile, opts...), nil
	}
}

// Holder tracks the active adapter and the state of its mount.
type Holder struct {
	mu      sync.RWMutex
	adapter ports.MapAdapter
	loading bool
	err     error
}

// NewHolder creates an empty Holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Activate mounts adapter into container and makes it current. The previous
// adapter, if any, is unmounted first. Mount errors are kept in Err and
// returned.
func (h *Holder) Activate(ctx context.Context, adapter ports.MapAdapter, container *ports.Container) error {
	h.mu.Lock()
	prev := h.adapter
	h.adapter = nil
	h.loading = true
	h.err = nil
	h.mu.Unlock()

	if prev != nil && prev != adapter {
		prev.Unmount()
	}

	err := adapter.Mount(ctx, container)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.loading = false
	if err != nil {
		h.err = err
		return err
	}
	h.adapter = adapter
	return nil
}

// Release unmounts and forgets the current adapter.
func (h *Holder) Release() {
	h.mu.Lock()
	a := h.adapter
	h.adapter = nil
	h.err = nil
	h.mu.Unlock()
	if a != nil {
		a.Unmount()
	}
}

// Adapter returns the mounted adapter, or nil.
func (h *Holder) Adapter() ports.MapAdapter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.adapter
}

// Loading reports whether a mount is in progress.
func (h *Holder) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}

// Err returns the last mount error.
func (h *Holder) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

type ctxKey struct{}

// WithHolder returns a context carrying h.
func WithHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, ctxKey{}, h)
}

// FromContext returns the Holder carried by ctx, or nil.
func FromContext(ctx context.Context) *Holder {
	h, _ := ctx.Value(ctxKey{}).(*Holder)
	return h
}
