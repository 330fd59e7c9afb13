// Package tile adapts a client-side tile-rendering map (Leaflet vocabulary)
// to ports.MapAdapter.
package tile

import (
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// LatLngBounds is the engine's rectangle, built from two opposite corners.
type LatLngBounds struct {
	SouthWest domain.LatLng
	NorthEast domain.LatLng
}

func (b LatLngBounds) North() float64 { return b.NorthEast.Lat }
func (b LatLngBounds) South() float64 { return b.SouthWest.Lat }
func (b LatLngBounds) East() float64  { return b.NorthEast.Lng }
func (b LatLngBounds) West() float64  { return b.SouthWest.Lng }

// MapOptions configures a new engine map.
type MapOptions struct {
	Center             domain.LatLng
	Zoom               float64
	AttributionControl bool
	ZoomControl        bool
}

// Event is a native engine event. LatLng is set for pointer events.
type Event struct {
	Type   string
	LatLng *domain.LatLng
}

// Layer is anything that can be added to a Map.
type Layer interface {
	layer()
}

// TileLayer is a raster tile source.
type TileLayer struct {
	URLTemplate string
	Attribution string
	MaxZoom     int
}

// Icon is a marker image. Exactly one of URL or HTML is set.
type Icon struct {
	URL         string
	HTML        string
	ClassName   string
	Size        [2]float64
	Anchor      [2]float64
	PopupAnchor [2]float64
}

// MarkerLayer is a point marker.
type MarkerLayer struct {
	Position     domain.LatLng
	Icon         Icon
	ZIndexOffset int
}

// PolylineLayer is an open path.
type PolylineLayer struct {
	Points  []domain.LatLng
	Color   string
	Weight  float64
	Opacity float64
}

// PolygonLayer is a closed filled path.
type PolygonLayer struct {
	Points      []domain.LatLng
	Color       string
	Weight      float64
	FillColor   string
	FillOpacity float64
}

func (*TileLayer) layer()     {}
func (*MarkerLayer) layer()   {}
func (*PolylineLayer) layer() {}
func (*PolygonLayer) layer()  {}

// Map is a live engine map.
type Map interface {
	SetView(center domain.LatLng, zoom float64)
	FitBounds(b LatLngBounds, padding [2]float64)
	Center() domain.LatLng
	Bounds() LatLngBounds
	Zoom() float64

	AddLayer(l Layer)
	RemoveLayer(l Layer)

	// On registers fn for each space-separated event type.
	On(types string, fn func(Event))
	// Off drops every listener of each space-separated event type.
	Off(types string)
	// Remove destroys the map and all of its listeners.
	Remove()
}

// Engine creates maps inside containers.
type Engine interface {
	NewMap(container *ports.Container, opts MapOptions) (Map, error)
}
