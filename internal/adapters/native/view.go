// Package native adapts a declarative mobile map view (react-native-maps
// vocabulary) to ports.MapAdapter. Overlays are kept as element lists and
// the view is re-rendered only when those lists change.
package native

import (
	"slices"
	"time"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// Region is the camera of a native view: a centre and the spans visible
// around it, in degrees.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func coordinate(p domain.LatLng) Coordinate {
	return Coordinate{Latitude: p.Lat, Longitude: p.Lng}
}

func coordinates(pts []domain.LatLng) []Coordinate {
	out := make([]Coordinate, len(pts))
	for i, p := range pts {
		out[i] = coordinate(p)
	}
	return out
}

type EdgePadding struct {
	Top, Right, Bottom, Left float64
}

// MarkerElement is one pin in the rendered tree. TracksViewChanges keeps
// the native view redrawing the pin until its image has settled.
type MarkerElement struct {
	Key               string
	Coordinate        Coordinate
	Status            domain.MarkerStatus
	Anchor            [2]float64
	ZIndex            int
	Image             string
	TracksViewChanges bool
}

// sameContent reports whether e and o draw the same pin, ignoring tracking.
func (e MarkerElement) sameContent(o MarkerElement) bool {
	e.TracksViewChanges, o.TracksViewChanges = false, false
	return e == o
}

type PolylineElement struct {
	Key         string
	Coordinates []Coordinate
	StrokeColor string
	StrokeWidth float64
}

func (e PolylineElement) equal(o PolylineElement) bool {
	return e.Key == o.Key && e.StrokeColor == o.StrokeColor &&
		e.StrokeWidth == o.StrokeWidth && slices.Equal(e.Coordinates, o.Coordinates)
}

type PolygonElement struct {
	Key         string
	Coordinates []Coordinate
	FillColor   string
	StrokeColor string
	StrokeWidth float64
}

func (e PolygonElement) equal(o PolygonElement) bool {
	return e.Key == o.Key && e.FillColor == o.FillColor && e.StrokeColor == o.StrokeColor &&
		e.StrokeWidth == o.StrokeWidth && slices.Equal(e.Coordinates, o.Coordinates)
}

// Tree is the full child list handed to View.Render, ordered by key.
type Tree struct {
	Markers   []MarkerElement
	Polylines []PolylineElement
	Polygons  []PolygonElement
}

// Listeners are the view callbacks. Nil fields are not called.
type Listeners struct {
	OnPress                func(Coordinate)
	OnRegionChangeComplete func(Region)
	OnMarkerImageLoaded    func(key string)
}

// View is a mounted native map view.
type View interface {
	AnimateToRegion(r Region, duration time.Duration)
	FitToCoordinates(coords []Coordinate, padding EdgePadding, animated bool)
	Render(t Tree)
	SetListeners(l Listeners)
	Detach()
}

// ViewFactory creates views inside containers.
type ViewFactory interface {
	NewView(container *ports.Container, initial Region) (View, error)
}
