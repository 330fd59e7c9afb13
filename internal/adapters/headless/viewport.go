// Package headless provides in-process map engines speaking each backend's
// native vocabulary. The viewport is a Web Mercator window of fixed pixel
// size; there is no rasterization. The session server mounts adapters on
// these engines, and tests drive them to simulate user gestures.
package headless

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

const (
	tileSize    = 256.0
	mercatorMax = math.Pi * orb.EarthRadius
	maxLatitude = 85.05112878

	DefaultWidth  = 1024
	DefaultHeight = 768
)

// Viewport is a Web Mercator camera over a Width×Height pixel window.
type Viewport struct {
	Width   int
	Height  int
	Center  domain.LatLng
	Zoom    float64
	MinZoom float64
	MaxZoom float64
	// Snap floors fitted zoom levels to integers, as tile engines do.
	Snap bool
}

// worldPoint projects p to pixel coordinates of the zoom-0 world (0..256).
func worldPoint(p domain.LatLng) orb.Point {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, p.Lat))
	m := project.WGS84.ToMercator(orb.Point{p.Lng, lat})
	return orb.Point{
		(m[0] + mercatorMax) / (2 * mercatorMax) * tileSize,
		(mercatorMax - m[1]) / (2 * mercatorMax) * tileSize,
	}
}

// unworldPoint is the inverse of worldPoint.
func unworldPoint(px orb.Point) domain.LatLng {
	m := orb.Point{
		px[0]/tileSize*2*mercatorMax - mercatorMax,
		mercatorMax - px[1]/tileSize*2*mercatorMax,
	}
	g := project.Mercator.ToWGS84(m)
	return domain.LatLng{Lat: g.Lat(), Lng: g.Lon()}
}

func (v *Viewport) scale() float64 {
	return math.Pow(2, v.Zoom)
}

func (v *Viewport) size() (float64, float64) {
	w, h := v.Width, v.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return float64(w), float64(h)
}

// Bounds returns the rectangle currently visible.
func (v *Viewport) Bounds() domain.Bounds {
	w, h := v.size()
	s := v.scale()
	c := worldPoint(v.Center)
	halfW, halfH := w/2/s, h/2/s
	return domain.Bounds{
		NW: unworldPoint(orb.Point{c[0] - halfW, c[1] - halfH}),
		SE: unworldPoint(orb.Point{c[0] + halfW, c[1] + halfH}),
	}
}

// LatLngAt returns the coordinate under pixel (x, y) of the window.
func (v *Viewport) LatLngAt(x, y float64) domain.LatLng {
	w, h := v.size()
	s := v.scale()
	c := worldPoint(v.Center)
	return unworldPoint(orb.Point{c[0] + (x-w/2)/s, c[1] + (y-h/2)/s})
}

// SetView moves the camera, clamping zoom to the allowed range.
func (v *Viewport) SetView(center domain.LatLng, zoom float64) {
	v.Center = center
	v.Zoom = v.clampZoom(zoom)
}

// Fit centres b in the window at the largest zoom leaving padding pixels
// free on every edge.
func (v *Viewport) Fit(b domain.Bounds, padding float64) {
	w, h := v.size()
	nw, se := worldPoint(b.NW), worldPoint(b.SE)
	dx := math.Max(math.Abs(se[0]-nw[0]), 1e-9)
	dy := math.Max(math.Abs(se[1]-nw[1]), 1e-9)

	availW := math.Max(w-2*padding, 1)
	availH := math.Max(h-2*padding, 1)
	zoom := math.Log2(math.Min(availW/dx, availH/dy))
	if v.Snap {
		zoom = math.Floor(zoom)
	}

	v.Center = unworldPoint(orb.Point{(nw[0] + se[0]) / 2, (nw[1] + se[1]) / 2})
	v.Zoom = v.clampZoom(zoom)
}

func (v *Viewport) clampZoom(z float64) float64 {
	if v.MaxZoom > 0 && z > v.MaxZoom {
		return v.MaxZoom
	}
	if z < v.MinZoom {
		return v.MinZoom
	}
	return z
}
