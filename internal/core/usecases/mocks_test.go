package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
)

// --- Mock StationRepository ---

type mockStationRepo struct {
	getByIDFn      func(ctx context.Context, id string) (*domain.Station, error)
	findInBoundsFn func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error)
	findNearbyFn   func(ctx context.Context, center domain.LatLng, radius float64, limit int) ([]domain.Station, error)
	updateStatusFn func(ctx context.Context, id string, status domain.MarkerStatus) error
}

func (m *mockStationRepo) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (m *mockStationRepo) FindInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, b, limit)
	}
	return nil, nil
}

func (m *mockStationRepo) FindNearby(ctx context.Context, center domain.LatLng, radius float64, limit int) ([]domain.Station, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, center, radius, limit)
	}
	return nil, nil
}

func (m *mockStationRepo) UpdateStatus(ctx context.Context, id string, status domain.MarkerStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockStationRepo) UpsertBatch(ctx context.Context, stations []domain.Station) error {
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.MapEvent
}

func (p *mockPublisher) PublishMapEvent(ctx context.Context, ev *domain.MapEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return nil
}

func (p *mockPublisher) published() []domain.MapEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.MapEvent(nil), p.events...)
}
