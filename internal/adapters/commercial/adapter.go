package commercial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/mapcore"
	"github.com/samirrijal/voltfinder/internal/mapcore/events"
	"github.com/samirrijal/voltfinder/internal/mapcore/overlay"
	"github.com/samirrijal/voltfinder/internal/pkg/metrics"
)

// Provider is the metrics label and provider name of this backend.
const Provider = "google"

// ErrMountAborted is returned by a Mount that was overtaken by Unmount
// while the SDK was loading.
var ErrMountAborted = errors.New("mount aborted")

var (
	DefaultCenter = domain.LatLng{Lat: 37.7749, Lng: -122.4194}
	DefaultZoom   = 13.0
)

// Adapter implements ports.MapAdapter on the SDK handed out by a Loader.
type Adapter struct {
	loader *Loader
	opts   mapcore.Options
	log    *slog.Logger

	mu        sync.Mutex
	seq       uint64
	pending   *pendingMount
	theme     string
	sdk       SDK
	m         Map
	listeners []Listener
	markers   *overlay.Registry[Overlay]
	polylines *overlay.Registry[Overlay]
	polygons  *overlay.Registry[Overlay]
	events    *events.Emitter
	region    *events.Debouncer[domain.RegionChangedEvent]
}

var (
	_ ports.MapAdapter = (*Adapter)(nil)
	_ ports.Themer     = (*Adapter)(nil)
)

// pendingMount is the in-flight Mount that overlapping Mount calls share.
type pendingMount struct {
	done chan struct{}
	err  error
}

// New creates an unmounted Adapter using theme for its first mount.
func New(loader *Loader, theme string, opts ...mapcore.Option) *Adapter {
	o := mapcore.Apply(opts)
	detach := func(ov Overlay) { ov.SetMap(nil) }
	return &Adapter{
		loader:    loader,
		opts:      o,
		log:       o.Logger.With("provider", Provider),
		theme:     normalizeTheme(theme),
		markers:   overlay.NewRegistry(detach),
		polylines: overlay.NewRegistry(detach),
		polygons:  overlay.NewRegistry(detach),
		events:    events.NewEmitter(),
	}
}

// Mount waits for the SDK and then creates the map. It is the only
// operation that blocks. Overlapping calls share the outcome of the first.
func (a *Adapter) Mount(ctx context.Context, container *ports.Container) error {
	if container == nil {
		return ports.ErrNoContainer
	}

	a.mu.Lock()
	if a.m != nil {
		a.mu.Unlock()
		return nil
	}
	if p := a.pending; p != nil {
		a.mu.Unlock()
		select {
		case <-p.done:
			return p.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p := &pendingMount{done: make(chan struct{})}
	a.pending = p
	seq := a.seq
	a.mu.Unlock()

	p.err = a.mount(ctx, container, seq)

	a.mu.Lock()
	if a.pending == p {
		a.pending = nil
	}
	a.mu.Unlock()
	close(p.done)
	return p.err
}

func (a *Adapter) mount(ctx context.Context, container *ports.Container, seq uint64) error {
	sdk, err := a.loader.Load(ctx)
	if err != nil {
		metrics.MapMounts.WithLabelValues(Provider, "error").Inc()
		return fmt.Errorf("mount commercial map: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seq != seq {
		metrics.MapMounts.WithLabelValues(Provider, "aborted").Inc()
		return ErrMountAborted
	}

	m, err := sdk.NewMap(container, MapOptions{
		Center:            DefaultCenter,
		Zoom:              DefaultZoom,
		Styles:            Styles(a.theme),
		FullscreenControl: true,
		ZoomControl:       true,
		GestureHandling:   "auto",
	})
	if err != nil {
		metrics.MapMounts.WithLabelValues(Provider, "error").Inc()
		return fmt.Errorf("mount commercial map: %w", err)
	}

	epoch := a.events.Epoch()
	region := events.NewDebouncer(a.opts.Clock, events.RegionDebounceWindow, func(ev domain.RegionChangedEvent) {
		a.dispatch(epoch, ev)
	})

	click := m.AddListener("click", func(e MouseEvent) {
		if e.LatLng == nil {
			return
		}
		a.dispatch(epoch, domain.PressEvent{Position: *e.LatLng})
	})
	idle := m.AddListener("idle", func(MouseEvent) {
		b, ok := m.Bounds()
		if !ok {
			return
		}
		ne, sw := b.NorthEast, b.SouthWest
		ev := domain.RegionChangedEvent{
			Center: m.Center(),
			Zoom:   m.Zoom(),
			Bounds: domain.Bounds{
				NW: domain.LatLng{Lat: ne.Lat, Lng: sw.Lng},
				SE: domain.LatLng{Lat: sw.Lat, Lng: ne.Lng},
			},
		}
		if region.Trigger(ev) {
			metrics.RegionSignalsCoalesced.WithLabelValues(Provider).Inc()
		}
	})

	a.sdk = sdk
	a.m = m
	a.listeners = []Listener{click, idle}
	a.region = region
	metrics.MapMounts.WithLabelValues(Provider, "ok").Inc()
	a.log.Debug("map mounted", "container", container.ID, "theme", a.theme)
	return nil
}

// Unmount releases listeners, overlays and handlers. A Mount still waiting
// for the SDK is aborted.
func (a *Adapter) Unmount() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	a.pending = nil
	if a.m == nil {
		return
	}

	a.region.Cancel()
	for _, l := range a.listeners {
		a.sdk.RemoveListener(l)
	}
	a.listeners = nil

	a.markers.Clear()
	a.polylines.Clear()
	a.polygons.Clear()

	a.m = nil
	a.region = nil
	a.events.Clear()
	a.log.Debug("map unmounted")
}

func (a *Adapter) SetCamera(pos domain.LatLng, zoom float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}
	a.m.SetCenter(pos)
	a.m.SetZoom(zoom)
}

// FitBounds fits the normalized rectangle. A negative padding means none.
func (a *Adapter) FitBounds(nw, se domain.LatLng, padding float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}
	b := domain.Bounds{NW: nw, SE: se}.Normalize()
	a.m.FitBounds(LatLngBounds{
		NorthEast: domain.LatLng{Lat: b.NW.Lat, Lng: b.SE.Lng},
		SouthWest: domain.LatLng{Lat: b.SE.Lat, Lng: b.NW.Lng},
	}, math.Max(padding, 0))
}

func (a *Adapter) AddMarker(id string, pos domain.LatLng, opts *domain.MarkerOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}

	a.markers.Remove(id)
	mo := MarkerOptions{Position: pos, Map: a.m}
	if opts != nil {
		mo.ZIndex = opts.ZIndex
		if opts.IconURL != "" {
			mo.Icon = &Icon{URL: opts.IconURL, Anchor: opts.Anchor}
		}
	}
	a.markers.Put(id, a.sdk.NewMarker(mo))
}

func (a *Adapter) RemoveMarker(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markers.Remove(id)
}

func (a *Adapter) AddPolyline(id string, pts []domain.LatLng, opts *domain.PolylineOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}

	o := opts.WithDefaults()
	a.polylines.Remove(id)
	a.polylines.Put(id, a.sdk.NewPolyline(PolylineOptions{
		Path:          append([]domain.LatLng(nil), pts...),
		Geodesic:      true,
		StrokeColor:   o.Color,
		StrokeOpacity: domain.DefaultStrokeOpacity,
		StrokeWeight:  o.Width,
		Map:           a.m,
	}))
}

func (a *Adapter) AddPolygon(id string, pts []domain.LatLng, opts *domain.PolygonOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}

	o := opts.WithDefaults()
	a.polygons.Remove(id)
	a.polygons.Put(id, a.sdk.NewPolygon(PolygonOptions{
		Paths:         append([]domain.LatLng(nil), pts...),
		StrokeColor:   o.StrokeColor,
		StrokeOpacity: domain.DefaultStrokeOpacity,
		StrokeWeight:  o.StrokeWidth,
		FillColor:     o.FillColor,
		FillOpacity:   *o.Opacity,
		Map:           a.m,
	}))
}

func (a *Adapter) On(event domain.EventName, h *events.Handler)  { a.events.On(event, h) }
func (a *Adapter) Off(event domain.EventName, h *events.Handler) { a.events.Off(event, h) }

// SetTheme restyles a mounted map in place. When unmounted the theme is
// kept for the next Mount.
func (a *Adapter) SetTheme(theme string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.theme = normalizeTheme(theme)
	if a.m != nil {
		a.m.SetStyles(Styles(a.theme))
	}
}

// Theme returns the active theme name.
func (a *Adapter) Theme() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

func (a *Adapter) OverlayCounts() (markers, polylines, polygons int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.markers.Len(), a.polylines.Len(), a.polygons.Len()
}

func (a *Adapter) dispatch(epoch uint64, ev domain.Event) {
	if n := a.events.EmitAt(epoch, ev); n > 0 {
		metrics.MapEventsEmitted.WithLabelValues(Provider, string(ev.Name())).Add(float64(n))
	}
}
