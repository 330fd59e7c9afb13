package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

func TestToFeatureCollection_CoordinateOrder(t *testing.T) {
	fc := domain.ToFeatureCollection([]domain.LatLng{{Lat: 10, Lng: 20}})

	require.Len(t, fc.Features, 1)
	pt, ok := fc.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, 20.0, pt[0], "first coordinate is longitude")
	assert.Equal(t, 10.0, pt[1], "second coordinate is latitude")
	assert.Equal(t, 0, fc.Features[0].Properties["id"])
}

func TestFromFeatureCollection_SkipsNonPoints(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Point{-46.658723, -23.561199}))
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}}))
	fc.Append(geojson.NewFeature(orb.Point{-46.66052, -23.56126}))

	points := domain.FromFeatureCollection(fc)
	assert.Equal(t, []domain.LatLng{
		{Lat: -23.561199, Lng: -46.658723},
		{Lat: -23.56126, Lng: -46.66052},
	}, points)
}

func TestGeoJSON_EncodeDecode(t *testing.T) {
	in := []domain.LatLng{{Lat: 43.263, Lng: -2.935}, {Lat: -33.87, Lng: 151.21}}

	data, err := domain.EncodeGeoJSON(in)
	require.NoError(t, err)

	var raw struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "FeatureCollection", raw.Type)
	assert.Equal(t, []float64{-2.935, 43.263}, raw.Features[0].Geometry.Coordinates)

	out, err := domain.DecodeGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeGeoJSON_Invalid(t *testing.T) {
	_, err := domain.DecodeGeoJSON([]byte(`{"type":`))
	assert.Error(t, err)
}
