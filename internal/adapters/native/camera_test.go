package native

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

func TestZoomRoundTrip(t *testing.T) {
	for z := 0.0; z <= 20; z += 0.25 {
		got := LatitudeDeltaToZoom(ZoomToLatitudeDelta(z))
		assert.InDelta(t, z, got, 1e-6, "zoom %v", z)
	}
}

func TestZoomToDeltas(t *testing.T) {
	assert.Equal(t, 180.0, ZoomToLatitudeDelta(0))
	assert.Equal(t, 45.0, ZoomToLatitudeDelta(2))
	assert.InDelta(t, 45*math.Cos(60*math.Pi/180), ZoomToLongitudeDelta(2, 60), 1e-12)
	assert.InDelta(t, ZoomToLatitudeDelta(5), ZoomToLongitudeDelta(5, 0), 1e-12)
}

func TestRegionBounds(t *testing.T) {
	b := RegionBounds(Region{Latitude: 10, Longitude: 20, LatitudeDelta: 2, LongitudeDelta: 4})
	assert.Equal(t, domain.Bounds{
		NW: domain.LatLng{Lat: 11, Lng: 18},
		SE: domain.LatLng{Lat: 9, Lng: 22},
	}, b)
}

func TestRegionChanged(t *testing.T) {
	r := RegionFor(domain.LatLng{Lat: -23.56, Lng: -46.66}, 14)
	ev := regionChanged(r)
	assert.InDelta(t, 14, ev.Zoom, 1e-9)
	assert.Equal(t, domain.LatLng{Lat: -23.56, Lng: -46.66}, ev.Center)
	assert.True(t, ev.Bounds.Contains(ev.Center))
}

func TestPinImage(t *testing.T) {
	assert.Equal(t, "markers/Free.png", pinImage(domain.MarkerFree))
	assert.Equal(t, "markers/Maintenance.png", pinImage(domain.MarkerMaintenance))
}
