package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/mapcore/events"
)

// ErrNoContainer is returned by Mount when no rendering target is given.
var ErrNoContainer = errors.New("map container is required")

// Container is the rendering target a map is mounted into.
type Container struct {
	ID     string
	Width  int // pixels
	Height int // pixels
}

// MapAdapter is the capability surface every map backend implements.
//
// Only Mount may block. Every other operation issued before Mount or after
// Unmount is a no-op. Overlay ids are replace-on-reuse; removing an unknown
// id does nothing.
type MapAdapter interface {
	// Mount attaches the map to container. Backend load failures are returned.
	Mount(ctx context.Context, container *Container) error
	// Unmount destroys every overlay, clears every handler and releases the
	// engine. Calling it on an unmounted adapter does nothing.
	Unmount()

	SetCamera(pos domain.LatLng, zoom float64)
	// FitBounds places the camera so the rectangle is fully visible, inset by
	// padding pixels on each edge.
	FitBounds(nw, se domain.LatLng, padding float64)

	AddMarker(id string, pos domain.LatLng, opts *domain.MarkerOptions)
	RemoveMarker(id string)
	AddPolyline(id string, pts []domain.LatLng, opts *domain.PolylineOptions)
	AddPolygon(id string, pts []domain.LatLng, opts *domain.PolygonOptions)

	On(event domain.EventName, h *events.Handler)
	Off(event domain.EventName, h *events.Handler)
}

// OverlayCounter is implemented by adapters that can report their overlay tables.
type OverlayCounter interface {
	OverlayCounts() (markers, polylines, polygons int)
}

// Themer is implemented by adapters with a switchable visual theme.
type Themer interface {
	SetTheme(theme string)
}

// Surface simulates user input on one mounted map.
type Surface interface {
	// Press taps the map at p.
	Press(p domain.LatLng)
	// Pan drags and pinches the camera to center and zoom.
	Pan(center domain.LatLng, zoom float64)
}

// SurfaceSource resolves the Surface mounted into a container.
type SurfaceSource interface {
	Surface(containerID string) (Surface, bool)
	Release(containerID string)
}
