package native

import (
	"math"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

// ZoomToLatitudeDelta converts a zoom level to the latitude span of the view.
func ZoomToLatitudeDelta(zoom float64) float64 {
	return 180 / math.Pow(2, zoom)
}

// ZoomToLongitudeDelta converts a zoom level to the longitude span of the
// view at latitude.
func ZoomToLongitudeDelta(zoom, latitude float64) float64 {
	return ZoomToLatitudeDelta(zoom) * math.Cos(latitude*math.Pi/180)
}

// LatitudeDeltaToZoom is the inverse of ZoomToLatitudeDelta.
func LatitudeDeltaToZoom(delta float64) float64 {
	return math.Log2(180 / delta)
}

// RegionFor returns the region centred on pos at zoom.
func RegionFor(pos domain.LatLng, zoom float64) Region {
	return Region{
		Latitude:       pos.Lat,
		Longitude:      pos.Lng,
		LatitudeDelta:  ZoomToLatitudeDelta(zoom),
		LongitudeDelta: ZoomToLongitudeDelta(zoom, pos.Lat),
	}
}

// RegionBounds returns the rectangle covered by r.
func RegionBounds(r Region) domain.Bounds {
	return domain.Bounds{
		NW: domain.LatLng{Lat: r.Latitude + r.LatitudeDelta/2, Lng: r.Longitude - r.LongitudeDelta/2},
		SE: domain.LatLng{Lat: r.Latitude - r.LatitudeDelta/2, Lng: r.Longitude + r.LongitudeDelta/2},
	}
}

// regionChanged converts a settled native region to the adapter event.
func regionChanged(r Region) domain.RegionChangedEvent {
	return domain.RegionChangedEvent{
		Center: domain.LatLng{Lat: r.Latitude, Lng: r.Longitude},
		Zoom:   LatitudeDeltaToZoom(r.LatitudeDelta),
		Bounds: RegionBounds(r),
	}
}
