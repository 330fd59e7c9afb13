package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

// ErrNotFound is returned by repositories for unknown ids.
var ErrNotFound = errors.New("not found")

// StationRepository reads charging stations supplied by the station API.
type StationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Station, error)
	FindInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error)
	// FindNearby returns up to limit stations within radiusMeters of
	// center, nearest first, with Distance set.
	FindNearby(ctx context.Context, center domain.LatLng, radiusMeters float64, limit int) ([]domain.Station, error)
	UpdateStatus(ctx context.Context, id string, status domain.MarkerStatus) error
	UpsertBatch(ctx context.Context, stations []domain.Station) error
}
