package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/voltfinder/internal/adapters/postgres"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/pkg/config"
)

const importBatchSize = 500

// stationWriter is the part of the station repository import needs.
type stationWriter interface {
	UpsertBatch(ctx context.Context, stations []domain.Station) error
}

func newImportCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "import <file.geojson|->",
		Short: "Upsert the Point features as stations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			stations, err := stationsFromGeoJSON(data)
			if err != nil {
				return err
			}

			cfg, err := config.Load("voltfinder-mapctl")
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx := cmd.Context()
			db, err := postgres.New(ctx, cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			if migrate {
				if err := db.Migrate(ctx, nil); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			n, err := importStations(ctx, postgres.NewStationRepo(db), stations, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d stations\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations first")
	return cmd
}

// importStations writes stations in batches stamped with now and returns
// how many were written.
func importStations(ctx context.Context, w stationWriter, stations []domain.Station, now time.Time) (int, error) {
	written := 0
	for start := 0; start < len(stations); start += importBatchSize {
		batch := stations[start:min(start+importBatchSize, len(stations))]
		for i := range batch {
			batch[i].UpdatedAt = now
		}
		if err := w.UpsertBatch(ctx, batch); err != nil {
			return written, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
		written += len(batch)
	}
	return written, nil
}
