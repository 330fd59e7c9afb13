package headless

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/samirrijal/voltfinder/internal/adapters/tile"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// ErrEngineUnavailable is returned by engines configured to fail.
var ErrEngineUnavailable = errors.New("map engine unavailable")

// TileEngine creates TileMaps.
type TileEngine struct {
	mu          sync.Mutex
	last        *TileMap
	byContainer map[string]*TileMap

	// Fail makes NewMap return ErrEngineUnavailable.
	Fail bool
}

var _ tile.Engine = (*TileEngine)(nil)

// NewTileEngine creates a TileEngine.
func NewTileEngine() *TileEngine {
	return &TileEngine{byContainer: make(map[string]*TileMap)}
}

func (e *TileEngine) NewMap(c *ports.Container, opts tile.MapOptions) (tile.Map, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Fail {
		return nil, ErrEngineUnavailable
	}

	m := &TileMap{
		vp: Viewport{
			Width:   c.Width,
			Height:  c.Height,
			Center:  opts.Center,
			Zoom:    opts.Zoom,
			MaxZoom: 19,
			Snap:    true,
		},
		layers:    make(map[tile.Layer]struct{}),
		listeners: make(map[string][]func(tile.Event)),
	}
	e.last = m
	if e.byContainer != nil {
		e.byContainer[c.ID] = m
	}
	return m, nil
}

// Last returns the most recently created map.
func (e *TileEngine) Last() *TileMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Surface returns the map last created in containerID.
func (e *TileEngine) Surface(containerID string) (ports.Surface, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.byContainer[containerID]
	if !ok {
		return nil, false
	}
	return tileSurface{m}, true
}

// Release forgets the map created in containerID.
func (e *TileEngine) Release(containerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.byContainer, containerID)
}

// TileMap is a headless Leaflet-style map.
type TileMap struct {
	mu        sync.Mutex
	vp        Viewport
	layers    map[tile.Layer]struct{}
	listeners map[string][]func(tile.Event)
	removed   bool
}

func (m *TileMap) SetView(center domain.LatLng, zoom float64) {
	m.mu.Lock()
	prevZoom := m.vp.Zoom
	m.vp.SetView(center, zoom)
	zoomed := prevZoom != m.vp.Zoom
	m.mu.Unlock()

	m.fire(tile.Event{Type: "moveend"})
	if zoomed {
		m.fire(tile.Event{Type: "zoomend"})
	}
}

func (m *TileMap) FitBounds(b tile.LatLngBounds, padding [2]float64) {
	m.mu.Lock()
	m.vp.Fit(domain.Bounds{
		NW: domain.LatLng{Lat: b.North(), Lng: b.West()},
		SE: domain.LatLng{Lat: b.South(), Lng: b.East()},
	}, padding[0])
	m.mu.Unlock()

	m.fire(tile.Event{Type: "moveend"})
	m.fire(tile.Event{Type: "zoomend"})
}

func (m *TileMap) Center() domain.LatLng {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vp.Center
}

func (m *TileMap) Bounds() tile.LatLngBounds {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.vp.Bounds()
	return tile.LatLngBounds{
		SouthWest: domain.LatLng{Lat: b.SE.Lat, Lng: b.NW.Lng},
		NorthEast: domain.LatLng{Lat: b.NW.Lat, Lng: b.SE.Lng},
	}
}

func (m *TileMap) Zoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vp.Zoom
}

func (m *TileMap) AddLayer(l tile.Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers[l] = struct{}{}
}

func (m *TileMap) RemoveLayer(l tile.Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.layers, l)
}

func (m *TileMap) On(types string, fn func(tile.Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range strings.Fields(types) {
		m.listeners[t] = append(m.listeners[t], fn)
	}
}

func (m *TileMap) Off(types string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range strings.Fields(types) {
		delete(m.listeners, t)
	}
}

func (m *TileMap) Remove() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = true
	m.layers = make(map[tile.Layer]struct{})
	m.listeners = make(map[string][]func(tile.Event))
}

// Click simulates a user click at p.
func (m *TileMap) Click(p domain.LatLng) {
	m.fire(tile.Event{Type: "click", LatLng: &p})
}

// Pan simulates a drag gesture ending at center.
func (m *TileMap) Pan(center domain.LatLng) {
	m.mu.Lock()
	m.vp.Center = center
	m.mu.Unlock()
	m.fire(tile.Event{Type: "moveend"})
}

// Markers returns the marker layers currently on the map.
func (m *TileMap) Markers() []*tile.MarkerLayer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tile.MarkerLayer
	for l := range m.layers {
		if mk, ok := l.(*tile.MarkerLayer); ok {
			out = append(out, mk)
		}
	}
	return out
}

// LayerCount returns the number of layers, tile layers included.
func (m *TileMap) LayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.layers)
}

// ListenerCount returns the number of registered listeners.
func (m *TileMap) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.listeners {
		n += len(l)
	}
	return n
}

// Removed reports whether Remove was called.
func (m *TileMap) Removed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removed
}

func (m *TileMap) fire(e tile.Event) {
	m.mu.Lock()
	fns := slices.Clone(m.listeners[e.Type])
	m.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}
