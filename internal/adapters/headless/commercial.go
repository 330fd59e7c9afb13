package headless

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/voltfinder/internal/adapters/commercial"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// SDK is a headless commercial maps library.
type SDK struct {
	mu          sync.Mutex
	last        *CommercialMap
	byContainer map[string]*CommercialMap

	// Fail makes NewMap return ErrEngineUnavailable.
	Fail bool
}

var _ commercial.SDK = (*SDK)(nil)

// NewSDK creates an SDK.
func NewSDK() *SDK {
	return &SDK{byContainer: make(map[string]*CommercialMap)}
}

// LoadFunc returns a commercial.LoadFunc that hands out s after delay.
func (s *SDK) LoadFunc(delay time.Duration) commercial.LoadFunc {
	return func(ctx context.Context) (commercial.SDK, error) {
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return s, nil
	}
}

func (s *SDK) NewMap(c *ports.Container, opts commercial.MapOptions) (commercial.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return nil, ErrEngineUnavailable
	}
	m := &CommercialMap{
		vp: Viewport{
			Width:   c.Width,
			Height:  c.Height,
			Center:  opts.Center,
			Zoom:    opts.Zoom,
			MaxZoom: 21,
			Snap:    true,
		},
		styles:    opts.Styles,
		listeners: make(map[*listener]struct{}),
		overlays:  make(map[*Overlay]struct{}),
	}
	s.last = m
	if s.byContainer != nil {
		s.byContainer[c.ID] = m
	}
	return m, nil
}

func (s *SDK) NewMarker(opts commercial.MarkerOptions) commercial.Overlay {
	o := &Overlay{Kind: "marker", Position: opts.Position, Icon: opts.Icon, ZIndex: opts.ZIndex}
	o.SetMap(opts.Map)
	return o
}

func (s *SDK) NewPolyline(opts commercial.PolylineOptions) commercial.Overlay {
	o := &Overlay{Kind: "polyline", Path: opts.Path, StrokeColor: opts.StrokeColor, StrokeWeight: opts.StrokeWeight}
	o.SetMap(opts.Map)
	return o
}

func (s *SDK) NewPolygon(opts commercial.PolygonOptions) commercial.Overlay {
	o := &Overlay{
		Kind:         "polygon",
		Path:         opts.Paths,
		StrokeColor:  opts.StrokeColor,
		StrokeWeight: opts.StrokeWeight,
		FillColor:    opts.FillColor,
		FillOpacity:  opts.FillOpacity,
	}
	o.SetMap(opts.Map)
	return o
}

func (s *SDK) RemoveListener(l commercial.Listener) {
	if l != nil {
		l.Remove()
	}
}

// Last returns the most recently created map.
func (s *SDK) Last() *CommercialMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Surface returns the map last created in containerID.
func (s *SDK) Surface(containerID string) (ports.Surface, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byContainer[containerID]
	if !ok {
		return nil, false
	}
	return commercialSurface{m}, true
}

// Release forgets the map created in containerID.
func (s *SDK) Release(containerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byContainer, containerID)
}

type listener struct {
	m     *CommercialMap
	event string
	fn    func(commercial.MouseEvent)
}

func (l *listener) Remove() {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	delete(l.m.listeners, l)
}

// Overlay is a headless marker, polyline or polygon.
type Overlay struct {
	Kind         string
	Position     domain.LatLng
	Icon         *commercial.Icon
	ZIndex       int
	Path         []domain.LatLng
	StrokeColor  string
	StrokeWeight float64
	FillColor    string
	FillOpacity  float64

	mu sync.Mutex
	m  *CommercialMap
}

func (o *Overlay) SetMap(m commercial.Map) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.m != nil {
		o.m.detach(o)
		o.m = nil
	}
	if cm, ok := m.(*CommercialMap); ok && cm != nil {
		cm.attach(o)
		o.m = cm
	}
}

// CommercialMap is a headless commercial SDK map. Camera changes fire
// "idle" synchronously.
type CommercialMap struct {
	mu        sync.Mutex
	vp        Viewport
	styles    []commercial.MapTypeStyle
	listeners map[*listener]struct{}
	order     []*listener
	overlays  map[*Overlay]struct{}
}

func (m *CommercialMap) AddListener(event string, fn func(commercial.MouseEvent)) commercial.Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &listener{m: m, event: event, fn: fn}
	m.listeners[l] = struct{}{}
	m.order = append(m.order, l)
	return l
}

func (m *CommercialMap) Center() domain.LatLng {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vp.Center
}

func (m *CommercialMap) Bounds() (commercial.LatLngBounds, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.vp.Bounds()
	return commercial.LatLngBounds{
		NorthEast: domain.LatLng{Lat: b.NW.Lat, Lng: b.SE.Lng},
		SouthWest: domain.LatLng{Lat: b.SE.Lat, Lng: b.NW.Lng},
	}, true
}

func (m *CommercialMap) Zoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vp.Zoom
}

func (m *CommercialMap) SetCenter(p domain.LatLng) {
	m.mu.Lock()
	m.vp.Center = p
	m.mu.Unlock()
	m.fire("idle", commercial.MouseEvent{})
}

func (m *CommercialMap) SetZoom(z float64) {
	m.mu.Lock()
	m.vp.Zoom = m.vp.clampZoom(z)
	m.mu.Unlock()
	m.fire("idle", commercial.MouseEvent{})
}

func (m *CommercialMap) FitBounds(b commercial.LatLngBounds, padding float64) {
	m.mu.Lock()
	m.vp.Fit(domain.Bounds{
		NW: domain.LatLng{Lat: b.NorthEast.Lat, Lng: b.SouthWest.Lng},
		SE: domain.LatLng{Lat: b.SouthWest.Lat, Lng: b.NorthEast.Lng},
	}, padding)
	m.mu.Unlock()
	m.fire("idle", commercial.MouseEvent{})
}

func (m *CommercialMap) SetStyles(styles []commercial.MapTypeStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.styles = styles
}

// Styles returns the styles currently applied.
func (m *CommercialMap) Styles() []commercial.MapTypeStyle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.styles
}

// Click simulates a user click at p.
func (m *CommercialMap) Click(p domain.LatLng) {
	m.fire("click", commercial.MouseEvent{LatLng: &p})
}

// Pan simulates a drag and zoom gesture ending at center and zoom.
func (m *CommercialMap) Pan(center domain.LatLng, zoom float64) {
	m.mu.Lock()
	m.vp.SetView(center, zoom)
	m.mu.Unlock()
	m.fire("idle", commercial.MouseEvent{})
}

// ListenerCount returns the number of live listeners.
func (m *CommercialMap) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// Overlays returns the overlays attached to the map.
func (m *CommercialMap) Overlays() []*Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Overlay, 0, len(m.overlays))
	for o := range m.overlays {
		out = append(out, o)
	}
	return out
}

func (m *CommercialMap) attach(o *Overlay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlays[o] = struct{}{}
}

func (m *CommercialMap) detach(o *Overlay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overlays, o)
}

func (m *CommercialMap) fire(event string, e commercial.MouseEvent) {
	m.mu.Lock()
	var fns []func(commercial.MouseEvent)
	live := m.order[:0]
	for _, l := range m.order {
		if _, ok := m.listeners[l]; !ok {
			continue
		}
		live = append(live, l)
		if l.event == event {
			fns = append(fns, l.fn)
		}
	}
	m.order = live
	m.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
