package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/voltfinder/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 600 requests per minute per IP. Gesture simulation is chatty.
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler { return timeout.NewWithContext(h, requestTimeout) }

	// Map sessions
	v1.Post("/sessions", with(CreateSessionHandler(deps)))
	v1.Get("/sessions", with(ListSessionsHandler(deps)))
	v1.Get("/sessions/:id", with(GetSessionHandler(deps)))
	v1.Delete("/sessions/:id", with(DeleteSessionHandler(deps)))
	v1.Put("/sessions/:id/camera", with(SetCameraHandler(deps)))
	v1.Put("/sessions/:id/theme", SessionHolder(deps), with(SetThemeHandler(deps)))
	v1.Post("/sessions/:id/fit", with(FitBoundsHandler(deps)))
	v1.Put("/sessions/:id/markers/:marker", with(PutMarkerHandler(deps)))
	v1.Delete("/sessions/:id/markers/:marker", with(DeleteMarkerHandler(deps)))
	v1.Put("/sessions/:id/polylines/:shape", with(PutPolylineHandler(deps)))
	v1.Put("/sessions/:id/polygons/:shape", with(PutPolygonHandler(deps)))
	v1.Post("/sessions/:id/stations", with(LoadStationsHandler(deps)))
	v1.Post("/sessions/:id/press", with(PressHandler(deps)))
	v1.Post("/sessions/:id/pan", with(PanHandler(deps)))

	// Stations
	v1.Get("/stations/nearby", with(NearbyStationsHandler(deps)))
	v1.Get("/stations/:id", with(GetStationHandler(deps)))
	v1.Get("/clusters", with(ClustersHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// WebSocket
	app.Use("/ws", WebSocketUpgrade(deps))
	app.Get("/ws", websocket.New(WebSocketHandler(relayFor(deps))))
}
