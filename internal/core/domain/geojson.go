package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToFeatureCollection converts points into a FeatureCollection of Point
// features. GeoJSON orders coordinates [lng, lat]; each feature carries its
// input index as the "id" property.
func ToFeatureCollection(points []LatLng) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range points {
		f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
		f.Properties["id"] = i
		fc.Append(f)
	}
	return fc
}

// FromFeatureCollection extracts the Point features of fc in order.
// Features with any other geometry are skipped.
func FromFeatureCollection(fc *geojson.FeatureCollection) []LatLng {
	if fc == nil {
		return nil
	}
	points := make([]LatLng, 0, len(fc.Features))
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		points = append(points, LatLng{Lat: pt.Lat(), Lng: pt.Lon()})
	}
	return points
}

// EncodeGeoJSON serializes points as a GeoJSON FeatureCollection.
func EncodeGeoJSON(points []LatLng) ([]byte, error) {
	data, err := ToFeatureCollection(points).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

// DecodeGeoJSON parses a FeatureCollection and returns its Point positions.
func DecodeGeoJSON(data []byte) ([]LatLng, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return FromFeatureCollection(fc), nil
}
