package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/voltfinder/internal/mapcore/cluster"
)

func newClusterCmd() *cobra.Command {
	var (
		zoom   float64
		opts   cluster.Options
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "cluster <file.geojson|->",
		Short: "Cluster the Point features at a zoom level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if zoom < 0 || zoom > 22 {
				return fmt.Errorf("zoom must be in [0, 22], got %v", zoom)
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			stations, err := stationsFromGeoJSON(data)
			if err != nil {
				return err
			}

			points := make([]cluster.Point, len(stations))
			for i, st := range stations {
				points[i] = cluster.Point{ID: st.ID, Lat: st.Location.Lat, Lng: st.Location.Lng}
			}
			items := cluster.Compute(points, opts, zoom)

			if asJSON {
				return printJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			for _, it := range items {
				if it.IsCluster() {
					fmt.Fprintf(out, "cluster %s  %d points  (%.6f, %.6f)\n", it.Cluster.ID, it.Cluster.PointCount, it.Cluster.Lat, it.Cluster.Lng)
					continue
				}
				fmt.Fprintf(out, "point   %s  (%.6f, %.6f)\n", it.Point.ID, it.Point.Lat, it.Point.Lng)
			}
			fmt.Fprintf(out, "%d items from %d points at zoom %g\n", len(items), len(points), zoom)
			return nil
		},
	}
	cmd.Flags().Float64Var(&zoom, "zoom", 10, "Zoom level")
	cmd.Flags().Float64Var(&opts.Radius, "radius", cluster.DefaultRadius, "Cluster radius in pixels")
	cmd.Flags().IntVar(&opts.MinPoints, "min-points", cluster.DefaultMinPoints, "Minimum points to form a cluster")
	cmd.Flags().Float64Var(&opts.MaxZoom, "max-zoom", cluster.DefaultMaxZoom, "Zoom above which nothing is merged")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
