package ports

import (
	"context"
	"errors"

	"github.com/samirrijal/voltfinder/internal/core/domain"
)

// EventPublisher publishes map events to a message broker.
type EventPublisher interface {
	PublishMapEvent(ctx context.Context, ev *domain.MapEvent) error
}

// EventSubscriber subscribes to station updates from a message broker.
type EventSubscriber interface {
	SubscribeStationStatus(ctx context.Context, handler func(ctx context.Context, change *domain.StationStatusChange) error) error
}

// ErrCacheMiss is returned by CacheService.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
