package tile

import (
	"context"
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
const Provider = "leaflet"

// Initial view of a freshly mounted map.
var (
	DefaultCenter = domain.LatLng{Lat: 37.7749, Lng: -122.4194}
	DefaultZoom   = 13.0
)

const (
	eventClick = "click"
	eventMove  = "moveend zoomend"
)

// Adapter implements ports.MapAdapter on a tile Engine.
type Adapter struct {
	engine Engine
	opts   mapcore.Options
	log    *slog.Logger

	mu        sync.Mutex
	m         Map
	markers   *overlay.Registry[Layer]
	polylines *overlay.Registry[Layer]
	polygons  *overlay.Registry[Layer]
	events    *events.Emitter
	region    *events.Debouncer[domain.RegionChangedEvent]
}

var _ ports.MapAdapter = (*Adapter)(nil)

// New creates an unmounted Adapter.
func New(engine Engine, opts ...mapcore.Option) *Adapter {
	o := mapcore.Apply(opts)
	a := &Adapter{
		engine: engine,
		opts:   o,
		log:    o.Logger.With("provider", Provider),
		events: events.NewEmitter(),
	}
	a.markers = overlay.NewRegistry(a.removeLayer)
	a.polylines = overlay.NewRegistry(a.removeLayer)
	a.polygons = overlay.NewRegistry(a.removeLayer)
	return a
}

// Mount creates the engine map with an OpenStreetMap tile layer and wires
// click and move events.
func (a *Adapter) Mount(ctx context.Context, container *ports.Container) error {
	if container == nil {
		return ports.ErrNoContainer
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.m != nil {
		return nil
	}

	m, err := a.engine.NewMap(container, MapOptions{
		Center:             DefaultCenter,
		Zoom:               DefaultZoom,
		AttributionControl: true,
		ZoomControl:        true,
	})
	if err != nil {
		metrics.MapMounts.WithLabelValues(Provider, "error").Inc()
		return fmt.Errorf("mount tile map: %w", err)
	}

	m.AddLayer(&TileLayer{
		URLTemplate: osmTileURL,
		Attribution: osmAttribution,
		MaxZoom:     osmMaxZoom,
	})

	epoch := a.events.Epoch()
	region := events.NewDebouncer(a.opts.Clock, events.RegionDebounceWindow, func(ev domain.RegionChangedEvent) {
		a.dispatch(epoch, ev)
	})

	m.On(eventClick, func(e Event) {
		if e.LatLng == nil {
			return
		}
		a.dispatch(epoch, domain.PressEvent{Position: *e.LatLng})
	})
	m.On(eventMove, func(Event) {
		if region.Trigger(regionOf(m)) {
			metrics.RegionSignalsCoalesced.WithLabelValues(Provider).Inc()
		}
	})

	a.m = m
	a.region = region
	metrics.MapMounts.WithLabelValues(Provider, "ok").Inc()
	a.log.Debug("map mounted", "container", container.ID)
	return nil
}

// Unmount tears the map down. It is a no-op when not mounted.
func (a *Adapter) Unmount() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.m == nil {
		return
	}

	a.region.Cancel()
	a.m.Off(eventClick)
	a.m.Off(eventMove)

	a.markers.Clear()
	a.polylines.Clear()
	a.polygons.Clear()

	a.m.Remove()
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
	a.m.SetView(pos, zoom)
}

// FitBounds normalizes degenerate rectangles before handing them to the
// engine. A negative padding means none.
func (a *Adapter) FitBounds(nw, se domain.LatLng, padding float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}

	b := domain.Bounds{NW: nw, SE: se}.Normalize()
	p := math.Max(padding, 0)
	a.m.FitBounds(LatLngBounds{
		SouthWest: domain.LatLng{Lat: b.SE.Lat, Lng: b.NW.Lng},
		NorthEast: domain.LatLng{Lat: b.NW.Lat, Lng: b.SE.Lng},
	}, [2]float64{p, p})
}

func (a *Adapter) AddMarker(id string, pos domain.LatLng, opts *domain.MarkerOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}

	a.markers.Remove(id)
	l := &MarkerLayer{Position: pos, Icon: markerIcon(opts)}
	if opts != nil {
		l.ZIndexOffset = opts.ZIndex
	}
	a.m.AddLayer(l)
	a.markers.Put(id, l)
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
	l := &PolylineLayer{
		Points:  append([]domain.LatLng(nil), pts...),
		Color:   o.Color,
		Weight:  o.Width,
		Opacity: domain.DefaultStrokeOpacity,
	}
	a.m.AddLayer(l)
	a.polylines.Put(id, l)
}

func (a *Adapter) AddPolygon(id string, pts []domain.LatLng, opts *domain.PolygonOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.m == nil {
		return
	}

	o := opts.WithDefaults()
	a.polygons.Remove(id)
	l := &PolygonLayer{
		Points:      append([]domain.LatLng(nil), pts...),
		Color:       o.StrokeColor,
		Weight:      o.StrokeWidth,
		FillColor:   o.FillColor,
		FillOpacity: *o.Opacity,
	}
	a.m.AddLayer(l)
	a.polygons.Put(id, l)
}

func (a *Adapter) On(event domain.EventName, h *events.Handler)  { a.events.On(event, h) }
func (a *Adapter) Off(event domain.EventName, h *events.Handler) { a.events.Off(event, h) }

// OverlayCounts reports the sizes of the overlay tables.
func (a *Adapter) OverlayCounts() (markers, polylines, polygons int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.markers.Len(), a.polylines.Len(), a.polygons.Len()
}

// removeLayer detaches l; registries call it with a.mu held.
func (a *Adapter) removeLayer(l Layer) {
	if a.m != nil {
		a.m.RemoveLayer(l)
	}
}

func (a *Adapter) dispatch(epoch uint64, ev domain.Event) {
	if n := a.events.EmitAt(epoch, ev); n > 0 {
		metrics.MapEventsEmitted.WithLabelValues(Provider, string(ev.Name())).Add(float64(n))
	}
}

func regionOf(m Map) domain.RegionChangedEvent {
	b := m.Bounds()
	return domain.RegionChangedEvent{
		Center: m.Center(),
		Zoom:   m.Zoom(),
		Bounds: domain.Bounds{
			NW: domain.LatLng{Lat: b.North(), Lng: b.West()},
			SE: domain.LatLng{Lat: b.South(), Lng: b.East()},
		},
	}
}
