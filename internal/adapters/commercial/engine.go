// Package commercial adapts a hosted, script-loaded maps SDK (Google Maps
// vocabulary) to ports.MapAdapter. The SDK is loaded once per process by
// the shared Loader.
package commercial

import (
	"context"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// LatLngBounds is the SDK rectangle, identified by its NE and SW corners.
type LatLngBounds struct {
	NorthEast domain.LatLng
	SouthWest domain.LatLng
}

// MapTypeStyle is one entry of a styled map theme.
type MapTypeStyle struct {
	FeatureType string              `json:"featureType,omitempty"`
	ElementType string              `json:"elementType,omitempty"`
	Stylers     []map[string]string `json:"stylers"`
}

// MapOptions configures a new SDK map.
type MapOptions struct {
	Center            domain.LatLng
	Zoom              float64
	Styles            []MapTypeStyle
	MapTypeControl    bool
	FullscreenControl bool
	StreetViewControl bool
	ZoomControl       bool
	ClickableIcons    bool
	GestureHandling   string
}

// MouseEvent is delivered to click listeners. LatLng is nil when the SDK
// could not resolve a position.
type MouseEvent struct {
	LatLng *domain.LatLng
}

// Listener is a registered SDK event listener.
type Listener interface {
	Remove()
}

// Map is a live SDK map.
type Map interface {
	AddListener(event string, fn func(MouseEvent)) Listener

	Center() domain.LatLng
	// Bounds reports false until the map has been laid out.
	Bounds() (LatLngBounds, bool)
	Zoom() float64

	SetCenter(p domain.LatLng)
	SetZoom(z float64)
	FitBounds(b LatLngBounds, padding float64)
	SetStyles(styles []MapTypeStyle)
}

// Overlay is a marker, polyline or polygon. SetMap(nil) detaches it.
type Overlay interface {
	SetMap(m Map)
}

// Icon is a marker image.
type Icon struct {
	URL    string
	Anchor *[2]float64
}

type MarkerOptions struct {
	Position domain.LatLng
	Map      Map
	ZIndex   int
	Icon     *Icon
}

type PolylineOptions struct {
	Path          []domain.LatLng
	Geodesic      bool
	StrokeColor   string
	StrokeOpacity float64
	StrokeWeight  float64
	Map           Map
}

type PolygonOptions struct {
	Paths         []domain.LatLng
	StrokeColor   string
	StrokeOpacity float64
	StrokeWeight  float64
	FillColor     string
	FillOpacity   float64
	Map           Map
}

// SDK is the loaded maps library.
type SDK interface {
	NewMap(container *ports.Container, opts MapOptions) (Map, error)
	NewMarker(opts MarkerOptions) Overlay
	NewPolyline(opts PolylineOptions) Overlay
	NewPolygon(opts PolygonOptions) Overlay
	RemoveListener(l Listener)
}

// LoadFunc fetches and initialises the SDK.
type LoadFunc func(ctx context.Context) (SDK, error)
