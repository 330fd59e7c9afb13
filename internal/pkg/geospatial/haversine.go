// Package geospatial holds great-circle helpers used for station search.
package geospatial

import (
	"math"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b domain.LatLng) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
