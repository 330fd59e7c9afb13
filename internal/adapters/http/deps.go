package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/voltfinder/internal/core/usecases"
)

// Pinger is a backing service that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.MapSessionService
	Stations *usecases.StationService
	Clusters *usecases.ClusterService
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
	Version  string
}
