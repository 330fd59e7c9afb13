package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

func newBoundsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "bounds <file.geojson|->",
		Short: "Print the bounding box of the Point features",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			points, err := domain.DecodeGeoJSON(data)
			if err != nil {
				return err
			}
			b, ok := domain.CalculateBounds(points)
			if !ok {
				return errors.New("no point features")
			}
			center := domain.BoundsCenter(b)

			if asJSON {
				return printJSON(cmd, map[string]any{
					"bounds": b,
					"center": center,
					"points": len(points),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "points: %d\n", len(points))
			fmt.Fprintf(out, "nw:     %s\n", b.NW)
			fmt.Fprintf(out, "se:     %s\n", b.SE)
			fmt.Fprintf(out, "center: %s\n", center)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
