package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/voltfinder/internal/adapters/commercial"
	"github.com/samirrijal/voltfinder/internal/adapters/headless"
	"github.com/samirrijal/voltfinder/internal/adapters/http"
	natsadapter "github.com/samirrijal/voltfinder/internal/adapters/nats"
	"github.com/samirrijal/voltfinder/internal/adapters/postgres"
	"github.com/samirrijal/voltfinder/internal/adapters/valkey"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/ports"
	"github.com/samirrijal/voltfinder/internal/core/usecases"
	"github.com/samirrijal/voltfinder/internal/mapcore"
	"github.com/samirrijal/voltfinder/internal/mapcore/cluster"
	"github.com/samirrijal/voltfinder/internal/mapcore/provider"
	"github.com/samirrijal/voltfinder/internal/pkg/config"
	"github.com/samirrijal/voltfinder/internal/pkg/logging"
	"github.com/samirrijal/voltfinder/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("voltfinder-mapd")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	stationRepo := postgres.NewStationRepo(db)

	// Cache
	var clusterCache ports.CacheService
	var cachePinger http.Pinger
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable, clusters are computed per request", "error", err)
	} else {
		defer cache.Close()
		clusterCache, cachePinger = cache, cache
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, map events stay in process", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Map engines. One of each serves every session; sessions are told
	// apart by container id.
	tiles := headless.NewTileEngine()
	sdk := headless.NewSDK()
	views := headless.NewViewFactory()
	engines := provider.Engines{
		Tile:   tiles,
		Loader: commercial.SharedLoader(sdk.LoadFunc(time.Duration(cfg.Map.SDKLoadDelayMs) * time.Millisecond)),
		Views:  views,
	}
	surfaces := map[provider.Kind]ports.SurfaceSource{
		provider.Leaflet: tiles,
		provider.Google:  sdk,
		provider.RNMaps:  views,
	}

	// Use cases
	sessions := usecases.NewMapSessionService(engines, surfaces, stationRepo, publisher,
		usecases.SessionOptions{
			Provider: cfg.Map.Provider,
			Theme:    cfg.Map.Theme,
			Width:    cfg.Map.Width,
			Height:   cfg.Map.Height,
		},
		mapcore.WithLogger(slog.Default()))
	defer sessions.Close()

	stationSvc := usecases.NewStationService(stationRepo)
	clusterSvc := usecases.NewClusterService(stationRepo, clusterCache, cluster.Options{
		Radius:    cfg.Cluster.Radius,
		MaxZoom:   cfg.Cluster.MaxZoom,
		MinPoints: cfg.Cluster.MinPoints,
	}, cfg.Cluster.CacheTTL, cfg.Cluster.Limit)

	// Station status updates recolour the markers of every open session.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("station status subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeStationStatus(ctx, func(ctx context.Context, change *domain.StationStatusChange) error {
			n, err := sessions.ApplyStationStatus(ctx, change)
			if err != nil {
				return err
			}
			slog.Debug("station status applied", "station", change.StationID, "status", change.Status, "markers", n)
			return nil
		})
		if err != nil {
			slog.Warn("subscribe station status", "error", err)
		}
	}

	deps := &http.Dependencies{
		Sessions: sessions,
		Stations: stationSvc,
		Clusters: clusterSvc,
		NATS:     natsConn,
		DB:       db,
		Cache:    cachePinger,
		Version:  version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "VoltFinder mapd",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("mapd starting", "addr", addr, "provider", cfg.Map.Provider, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
