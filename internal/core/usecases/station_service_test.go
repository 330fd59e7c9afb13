package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/usecases"
)

func TestStationService_FindNearby(t *testing.T) {
	center := domain.LatLng{Lat: -23.5605, Lng: -46.6619}
	repo := &mockStationRepo{
		findNearbyFn: func(ctx context.Context, c domain.LatLng, radius float64, limit int) ([]domain.Station, error) {
			if c != center || radius != 600 || limit != 10 {
				t.Errorf("unexpected query center=%+v radius=%v limit=%d", c, radius, limit)
			}
			return []domain.Station{
				{ID: "far", Location: domain.LatLng{Lat: -23.5650, Lng: -46.6619}},
				{ID: "outside", Location: domain.LatLng{Lat: -23.5700, Lng: -46.6700}},
				{ID: "near", Location: domain.LatLng{Lat: -23.5606, Lng: -46.6619}},
			}, nil
		},
	}

	svc := usecases.NewStationService(repo)

	stations, err := svc.FindNearby(context.Background(), center, 600, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(stations))
	}
	if stations[0].ID != "near" || stations[1].ID != "far" {
		t.Errorf("expected nearest first, got %s, %s", stations[0].ID, stations[1].ID)
	}
	if stations[0].Distance == nil || *stations[0].Distance > 20 {
		t.Errorf("unexpected distance %v", stations[0].Distance)
	}
}

func TestStationService_FindNearby_Limit(t *testing.T) {
	repo := &mockStationRepo{
		findNearbyFn: func(ctx context.Context, c domain.LatLng, radius float64, limit int) ([]domain.Station, error) {
			if limit != 50 {
				t.Errorf("expected limit clamped to 50 before the query, got %d", limit)
			}
			out := make([]domain.Station, 80)
			for i := range out {
				out[i] = domain.Station{ID: "s", Location: c}
			}
			return out, nil
		},
	}

	svc := usecases.NewStationService(repo)
	stations, err := svc.FindNearby(context.Background(), domain.LatLng{}, 0, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stations) != 50 {
		t.Errorf("expected limit clamped to 50, got %d", len(stations))
	}
}

func TestStationService_FindNearby_DenseArea(t *testing.T) {
	center := domain.LatLng{Lat: 43.2630, Lng: -2.9350}
	dense := make([]domain.Station, 0, 801)
	for i := 0; i < 800; i++ {
		dense = append(dense, domain.Station{
			ID:       fmt.Sprintf("ring-%03d", i),
			Location: domain.LatLng{Lat: center.Lat + 0.004, Lng: center.Lng},
		})
	}
	dense = append(dense, domain.Station{ID: "closest", Location: center})

	repo := &mockStationRepo{
		findInBoundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error) {
			t.Error("nearby search must not read an unordered bounding box")
			return dense[:min(limit, len(dense))], nil
		},
		findNearbyFn: func(ctx context.Context, c domain.LatLng, radius float64, limit int) ([]domain.Station, error) {
			out := append([]domain.Station{dense[len(dense)-1]}, dense[:len(dense)-1]...)
			return out[:limit], nil
		},
	}

	stations, err := usecases.NewStationService(repo).FindNearby(context.Background(), center, 1000, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stations) != 5 || stations[0].ID != "closest" {
		t.Fatalf("expected the closest station first of 5, got %+v", stations)
	}
}

func TestStationService_FindNearby_RepoError(t *testing.T) {
	boom := errors.New("db down")
	repo := &mockStationRepo{
		findNearbyFn: func(ctx context.Context, c domain.LatLng, radius float64, limit int) ([]domain.Station, error) {
			return nil, boom
		},
	}

	_, err := usecases.NewStationService(repo).FindNearby(context.Background(), domain.LatLng{}, 100, 5)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped repository error, got %v", err)
	}
}

func TestStationService_InBoundsNormalizes(t *testing.T) {
	called := false
	repo := &mockStationRepo{
		findInBoundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error) {
			called = true
			if !b.Valid() {
				t.Errorf("expected normalized bounds, got %+v", b)
			}
			if limit != 200 {
				t.Errorf("expected default limit 200, got %d", limit)
			}
			return nil, nil
		},
	}

	b := domain.Bounds{NW: domain.LatLng{Lat: 1, Lng: 1}, SE: domain.LatLng{Lat: 2, Lng: 0}}
	if _, err := usecases.NewStationService(repo).InBounds(context.Background(), b, -1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected repository call")
	}
}
