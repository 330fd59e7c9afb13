package domain

import (
	"fmt"
	"math"
)

// LatLng represents a geographic coordinate (WGS 84).
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p LatLng) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lng)
}

// Bounds is a viewport rectangle given by its northwest and southeast corners.
type Bounds struct {
	NW LatLng `json:"nw"`
	SE LatLng `json:"se"`
}

// minSpan is the smallest latitude/longitude extent Normalize will produce.
const minSpan = 1e-6

// Valid reports whether the rectangle is non-degenerate and correctly oriented.
func (b Bounds) Valid() bool {
	return b.NW.Lat > b.SE.Lat && b.NW.Lng < b.SE.Lng
}

// Contains reports whether p lies inside the rectangle, edges included.
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat <= b.NW.Lat && p.Lat >= b.SE.Lat &&
		p.Lng >= b.NW.Lng && p.Lng <= b.SE.Lng
}

// Normalize returns an oriented, non-degenerate copy of b. Swapped corners
// are reordered and zero-width or zero-height spans are widened around
// their midpoint.
func (b Bounds) Normalize() Bounds {
	north := math.Max(b.NW.Lat, b.SE.Lat)
	south := math.Min(b.NW.Lat, b.SE.Lat)
	west := math.Min(b.NW.Lng, b.SE.Lng)
	east := math.Max(b.NW.Lng, b.SE.Lng)

	if north-south < minSpan {
		mid := (north + south) / 2
		north, south = mid+minSpan/2, mid-minSpan/2
	}
	if east-west < minSpan {
		mid := (east + west) / 2
		east, west = mid+minSpan/2, mid-minSpan/2
	}

	return Bounds{
		NW: LatLng{Lat: north, Lng: west},
		SE: LatLng{Lat: south, Lng: east},
	}
}

// CalculateBounds returns the minimal rectangle enclosing points.
// ok is false for an empty input.
func CalculateBounds(points []LatLng) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}

	return Bounds{
		NW: LatLng{Lat: maxLat, Lng: minLng},
		SE: LatLng{Lat: minLat, Lng: maxLng},
	}, true
}

// BoundsCenter returns the arithmetic midpoint of the two corners.
func BoundsCenter(b Bounds) LatLng {
	return LatLng{
		Lat: (b.NW.Lat + b.SE.Lat) / 2,
		Lng: (b.NW.Lng + b.SE.Lng) / 2,
	}
}
