package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/mapcore/cluster"
	"github.com/samirrijal/voltfinder/internal/pkg/metrics"
)

// ErrInvalidZoom is returned for zoom levels outside [0, 22].
var ErrInvalidZoom = errors.New("zoom must be between 0 and 22")

// ClusterService clusters the stations of a viewport.
type ClusterService struct {
	stations ports.StationRepository
	cache    ports.CacheService
	opts     cluster.Options
	ttl      int
	limit    int
}

// NewClusterService creates a ClusterService. cache may be nil; ttl is in
// seconds and limit caps the stations read per viewport.
func NewClusterService(stations ports.StationRepository, cache ports.CacheService, opts cluster.Options, ttl, limit int) *ClusterService {
	if ttl <= 0 {
		ttl = 60
	}
	if limit <= 0 {
		limit = 5000
	}
	return &ClusterService{stations: stations, cache: cache, opts: opts, ttl: ttl, limit: limit}
}

// Clusters returns the clustered stations of b at zoom rounded to one
// decimal. The rounded zoom keys the cache and drives the clustering.
func (s *ClusterService) Clusters(ctx context.Context, b domain.Bounds, zoom float64) ([]cluster.Item, error) {
	if zoom < 0 || zoom > 22 {
		return nil, ErrInvalidZoom
	}
	b = b.Normalize()
	zoom = math.Round(zoom*10) / 10

	cacheKey := fmt.Sprintf("clusters:%.4f:%.4f:%.4f:%.4f:%.1f", b.NW.Lat, b.NW.Lng, b.SE.Lat, b.SE.Lng, zoom)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var items []cluster.Item
			if err := json.Unmarshal(data, &items); err == nil {
				metrics.CacheHits.WithLabelValues("clusters").Inc()
				return items, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("clusters").Inc()
	}

	stations, err := s.stations.FindInBounds(ctx, b, s.limit)
	if err != nil {
		return nil, fmt.Errorf("find stations: %w", err)
	}

	points := make([]cluster.Point, len(stations))
	for i, st := range stations {
		points[i] = cluster.Point{ID: st.ID, Lat: st.Location.Lat, Lng: st.Location.Lng}
	}

	start := time.Now()
	items := cluster.Compute(points, s.opts, zoom)
	metrics.ClustersComputed.Observe(time.Since(start).Seconds())

	if s.cache != nil {
		if data, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}
	return items, nil
}
