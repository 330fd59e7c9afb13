package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/voltfinder/internal/adapters/nats"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/pkg/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <station-id> <free|busy|closed|maintenance>",
		Short: "Announce a station status change to running map servers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			change := &domain.StationStatusChange{
				StationID: args[0],
				Status:    domain.MarkerStatus(args[1]),
				Time:      time.Now().UTC(),
			}
			if !change.Status.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}

			cfg, err := config.Load("voltfinder-mapctl")
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
			if err != nil {
				return fmt.Errorf("nats: %w", err)
			}
			defer pub.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := pub.PublishStationStatus(ctx, change); err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", change.StationID, change.Status)
			return nil
		},
	}
}
