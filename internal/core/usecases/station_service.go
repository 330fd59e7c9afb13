package usecases

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/pkg/geospatial"
)

const (
	defaultNearbyRadius = 1000.0
	maxNearbyRadius     = 50000.0
)

// StationService answers station lookups for the map surface.
type StationService struct {
	stations ports.StationRepository
}

// NewStationService creates a new StationService.
func NewStationService(stations ports.StationRepository) *StationService {
	return &StationService{stations: stations}
}

// Get returns one station.
func (s *StationService) Get(ctx context.Context, id string) (*domain.Station, error) {
	return s.stations.GetByID(ctx, id)
}

// InBounds returns stations inside b.
func (s *StationService) InBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error) {
	if limit <= 0 || limit > maxSessionLimit {
		limit = defaultStationsN
	}
	return s.stations.FindInBounds(ctx, b.Normalize(), limit)
}

// FindNearby returns stations within radiusMeters of center, nearest first,
// with Distance set.
func (s *StationService) FindNearby(ctx context.Context, center domain.LatLng, radiusMeters float64, limit int) ([]domain.Station, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultNearbyRadius
	}
	radiusMeters = min(radiusMeters, maxNearbyRadius)

	candidates, err := s.stations.FindNearby(ctx, center, radiusMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("find stations: %w", err)
	}

	out := candidates[:0]
	for _, st := range candidates {
		if st.Distance == nil {
			d := geospatial.Haversine(center, st.Location)
			st.Distance = &d
		}
		if *st.Distance > radiusMeters {
			continue
		}
		out = append(out, st)
	}
	slices.SortStableFunc(out, func(a, b domain.Station) int {
		return cmp.Compare(*a.Distance, *b.Distance)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
