package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voltfinder",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Map adapter metrics
	MapMounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "map",
		Name:      "mounts_total",
		Help:      "Map mount attempts by provider and result",
	}, []string{"provider", "result"})

	MapEventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "map",
		Name:      "events_emitted_total",
		Help:      "Adapter events delivered to handlers",
	}, []string{"provider", "event"})

	RegionSignalsCoalesced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "map",
		Name:      "region_signals_coalesced_total",
		Help:      "Raw viewport changes superseded inside the debounce window",
	}, []string{"provider"})

	NativeMarkerRenders = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "map",
		Name:      "native_renders_total",
		Help:      "Element tree renders issued to the native map view",
	})

	SDKLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "map",
		Name:      "sdk_loads_total",
		Help:      "Commercial SDK load attempts by result",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "voltfinder",
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Map sessions currently mounted",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "voltfinder",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	WebSocketDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "ws",
		Name:      "dropped_events_total",
		Help:      "Map events dropped because a client's send queue was full",
	})

	ClustersComputed = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voltfinder",
		Subsystem: "cluster",
		Name:      "duration_seconds",
		Help:      "Time spent clustering a station set",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voltfinder",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
