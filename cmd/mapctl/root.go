package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mapctl",
		Short: "Inspect and load station GeoJSON for VoltFinder",
		Long: `mapctl works on GeoJSON FeatureCollections of Point features.

It computes bounding boxes and clusters offline, imports stations into the
station database and announces station status changes on the broker.`,
		SilenceUsage: true,
	}
	root.AddCommand(newBoundsCmd(), newClusterCmd(), newImportCmd(), newStatusCmd())
	return root
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stationsFromGeoJSON reads Point features as stations. The id comes from
// the feature id, then the "id" property, then the feature index. A missing
// or unknown status becomes free.
func stationsFromGeoJSON(data []byte) ([]domain.Station, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	stations := make([]domain.Station, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		id := featureID(f, i)
		status := domain.MarkerStatus(f.Properties.MustString("status", string(domain.MarkerFree)))
		if !status.Valid() {
			status = domain.MarkerFree
		}
		stations = append(stations, domain.Station{
			ID:       id,
			Name:     f.Properties.MustString("name", id),
			Location: domain.LatLng{Lat: pt.Lat(), Lng: pt.Lon()},
			Status:   status,
		})
	}
	return stations, nil
}

func featureID(f *geojson.Feature, index int) string {
	switch v := f.ID.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	switch v := f.Properties["id"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.Itoa(index)
}
