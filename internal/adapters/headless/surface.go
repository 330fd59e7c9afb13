package headless

import (
	"github.com/samirrijal/voltfinder/internal/adapters/native"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// Every headless engine exposes the maps it created as ports.Surface,
// keyed by container id.
var (
	_ ports.SurfaceSource = (*TileEngine)(nil)
	_ ports.SurfaceSource = (*SDK)(nil)
	_ ports.SurfaceSource = (*ViewFactory)(nil)
)

type tileSurface struct{ m *TileMap }

func (s tileSurface) Press(p domain.LatLng)                  { s.m.Click(p) }
func (s tileSurface) Pan(center domain.LatLng, zoom float64) { s.m.SetView(center, zoom) }

type commercialSurface struct{ m *CommercialMap }

func (s commercialSurface) Press(p domain.LatLng)                  { s.m.Click(p) }
func (s commercialSurface) Pan(center domain.LatLng, zoom float64) { s.m.Pan(center, zoom) }

type nativeSurface struct{ v *NativeView }

func (s nativeSurface) Press(p domain.LatLng) {
	s.v.Press(native.Coordinate{Latitude: p.Lat, Longitude: p.Lng})
}

func (s nativeSurface) Pan(center domain.LatLng, zoom float64) {
	s.v.Gesture(native.RegionFor(center, zoom))
}
