package native

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/mapcore"
	"github.com/samirrijal/voltfinder/internal/mapcore/events"
	"github.com/samirrijal/voltfinder/internal/mapcore/overlay"
	"github.com/samirrijal/voltfinder/internal/pkg/metrics"
)

// Provider is the metrics label and provider name of this backend.
const Provider = "rn-maps"

const (
	// CameraAnimation is the duration of SetCamera transitions.
	CameraAnimation = 1000 * time.Millisecond
	// DefaultFitPadding applies when FitBounds is given a negative padding.
	DefaultFitPadding = 50.0
	// TrackingGrace is how long a pin keeps tracking view changes after its
	// image finished loading.
	TrackingGrace = 5 * time.Second
)

// InitialRegion is the camera of a freshly mounted view.
var InitialRegion = Region{
	Latitude:       -23.5605805,
	Longitude:      -46.661941,
	LatitudeDelta:  0.0922,
	LongitudeDelta: 0.0421,
}

var defaultAnchor = [2]float64{0.5, 1}

// Adapter implements ports.MapAdapter on a native View.
type Adapter struct {
	views ViewFactory
	opts  mapcore.Options
	log   *slog.Logger

	mu        sync.Mutex
	view      View
	markers   *overlay.Registry[MarkerElement]
	polylines *overlay.Registry[PolylineElement]
	polygons  *overlay.Registry[PolygonElement]
	tracking  map[string]*clock.Timer
	dirty     bool
	events    *events.Emitter
	region    *events.Debouncer[domain.RegionChangedEvent]
}

var _ ports.MapAdapter = (*Adapter)(nil)

// New creates an unmounted Adapter.
func New(views ViewFactory, opts ...mapcore.Option) *Adapter {
	o := mapcore.Apply(opts)
	a := &Adapter{
		views:    views,
		opts:     o,
		log:      o.Logger.With("provider", Provider),
		tracking: make(map[string]*clock.Timer),
		events:   events.NewEmitter(),
	}
	a.markers = overlay.NewRegistry(func(e MarkerElement) { a.stopTracking(e.Key) })
	a.polylines = overlay.NewRegistry[PolylineElement](nil)
	a.polygons = overlay.NewRegistry[PolygonElement](nil)
	return a
}

func (a *Adapter) Mount(ctx context.Context, container *ports.Container) error {
	if container == nil {
		return ports.ErrNoContainer
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.view != nil {
		return nil
	}

	view, err := a.views.NewView(container, InitialRegion)
	if err != nil {
		metrics.MapMounts.WithLabelValues(Provider, "error").Inc()
		return fmt.Errorf("mount native view: %w", err)
	}

	epoch := a.events.Epoch()
	region := events.NewDebouncer(a.opts.Clock, events.RegionDebounceWindow, func(ev domain.RegionChangedEvent) {
		a.dispatch(epoch, ev)
	})

	view.SetListeners(Listeners{
		OnPress: func(c Coordinate) {
			a.dispatch(epoch, domain.PressEvent{Position: domain.LatLng{Lat: c.Latitude, Lng: c.Longitude}})
		},
		OnRegionChangeComplete: func(r Region) {
			if region.Trigger(regionChanged(r)) {
				metrics.RegionSignalsCoalesced.WithLabelValues(Provider).Inc()
			}
		},
		OnMarkerImageLoaded: a.imageLoaded,
	})

	a.view = view
	a.region = region
	a.dirty = true
	a.flush()
	metrics.MapMounts.WithLabelValues(Provider, "ok").Inc()
	a.log.Debug("view mounted", "container", container.ID)
	return nil
}

func (a *Adapter) Unmount() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.view == nil {
		return
	}

	a.region.Cancel()
	a.markers.Clear()
	a.polylines.Clear()
	a.polygons.Clear()

	a.view.SetListeners(Listeners{})
	a.view.Detach()
	a.view = nil
	a.region = nil
	a.dirty = false
	a.events.Clear()
	a.log.Debug("view unmounted")
}

// SetCamera animates to pos, deriving the region spans from zoom.
func (a *Adapter) SetCamera(pos domain.LatLng, zoom float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil {
		return
	}
	a.view.AnimateToRegion(RegionFor(pos, zoom), CameraAnimation)
}

// FitBounds fits both corners. A negative padding selects DefaultFitPadding.
func (a *Adapter) FitBounds(nw, se domain.LatLng, padding float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil {
		return
	}
	if padding < 0 {
		padding = DefaultFitPadding
	}
	b := domain.Bounds{NW: nw, SE: se}.Normalize()
	a.view.FitToCoordinates(
		[]Coordinate{coordinate(b.NW), coordinate(b.SE)},
		EdgePadding{Top: padding, Right: padding, Bottom: padding, Left: padding},
		true,
	)
}

func (a *Adapter) AddMarker(id string, pos domain.LatLng, opts *domain.MarkerOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil {
		return
	}

	e := markerElement(id, pos, opts)
	if prev, ok := a.markers.Get(id); ok && prev.sameContent(e) {
		return
	}
	a.markers.Put(id, e)
	a.dirty = true
	a.flush()
}

func (a *Adapter) RemoveMarker(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.markers.Remove(id) {
		a.dirty = true
		a.flush()
	}
}

func (a *Adapter) AddPolyline(id string, pts []domain.LatLng, opts *domain.PolylineOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil {
		return
	}

	o := opts.WithDefaults()
	e := PolylineElement{Key: id, Coordinates: coordinates(pts), StrokeColor: o.Color, StrokeWidth: o.Width}
	if prev, ok := a.polylines.Get(id); ok && prev.equal(e) {
		return
	}
	a.polylines.Put(id, e)
	a.dirty = true
	a.flush()
}

func (a *Adapter) AddPolygon(id string, pts []domain.LatLng, opts *domain.PolygonOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil {
		return
	}

	o := opts.WithDefaults()
	e := PolygonElement{
		Key:         id,
		Coordinates: coordinates(pts),
		FillColor:   o.FillColor,
		StrokeColor: o.StrokeColor,
		StrokeWidth: o.StrokeWidth,
	}
	if prev, ok := a.polygons.Get(id); ok && prev.equal(e) {
		return
	}
	a.polygons.Put(id, e)
	a.dirty = true
	a.flush()
}

func (a *Adapter) On(event domain.EventName, h *events.Handler)  { a.events.On(event, h) }
func (a *Adapter) Off(event domain.EventName, h *events.Handler) { a.events.Off(event, h) }

func (a *Adapter) OverlayCounts() (markers, polylines, polygons int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.markers.Len(), a.polylines.Len(), a.polygons.Len()
}

// imageLoaded starts the grace timer after which the pin stops tracking
// view changes.
func (a *Adapter) imageLoaded(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.markers.Get(key)
	if a.view == nil || !ok || !e.TracksViewChanges {
		return
	}
	a.stopTracking(key)

	var t *clock.Timer
	t = a.opts.Clock.AfterFunc(TrackingGrace, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.tracking[key] != t {
			return
		}
		delete(a.tracking, key)
		e, ok := a.markers.Get(key)
		if !ok {
			return
		}
		e.TracksViewChanges = false
		a.markers.Put(key, e)
		a.dirty = true
		a.flush()
	})
	a.tracking[key] = t
}

// stopTracking cancels the grace timer of key. Callers hold a.mu.
func (a *Adapter) stopTracking(key string) {
	if t, ok := a.tracking[key]; ok {
		t.Stop()
		delete(a.tracking, key)
	}
}

// flush renders the element tree if it changed. Callers hold a.mu.
func (a *Adapter) flush() {
	if !a.dirty || a.view == nil {
		return
	}
	a.dirty = false

	var t Tree
	for _, id := range a.markers.IDs() {
		e, _ := a.markers.Get(id)
		t.Markers = append(t.Markers, e)
	}
	for _, id := range a.polylines.IDs() {
		e, _ := a.polylines.Get(id)
		t.Polylines = append(t.Polylines, e)
	}
	for _, id := range a.polygons.IDs() {
		e, _ := a.polygons.Get(id)
		t.Polygons = append(t.Polygons, e)
	}
	a.view.Render(t)
	metrics.NativeMarkerRenders.Inc()
}

func (a *Adapter) dispatch(epoch uint64, ev domain.Event) {
	if n := a.events.EmitAt(epoch, ev); n > 0 {
		metrics.MapEventsEmitted.WithLabelValues(Provider, string(ev.Name())).Add(float64(n))
	}
}

func markerElement(id string, pos domain.LatLng, opts *domain.MarkerOptions) MarkerElement {
	e := MarkerElement{
		Key:               id,
		Coordinate:        coordinate(pos),
		Status:            domain.MarkerFree,
		Anchor:            defaultAnchor,
		TracksViewChanges: true,
	}
	if opts != nil {
		if opts.Status.Valid() {
			e.Status = opts.Status
		}
		if opts.Anchor != nil {
			e.Anchor = *opts.Anchor
		}
		e.ZIndex = opts.ZIndex
		e.Image = opts.IconURL
	}
	if e.Image == "" {
		e.Image = pinImage(e.Status)
	}
	return e
}

// pinImage returns the bundled pin asset for s.
func pinImage(s domain.MarkerStatus) string {
	name := string(s)
	return "markers/" + strings.ToUpper(name[:1]) + name[1:] + ".png"
}
