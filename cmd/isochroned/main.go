package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/impactsolutionsas/transit-isochrones/internal/api"
	"github.com/impactsolutionsas/transit-isochrones/internal/config"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/impactsolutionsas/transit-isochrones/internal/graphbuild"
	"github.com/impactsolutionsas/transit-isochrones/internal/isocache"
	"github.com/impactsolutionsas/transit-isochrones/internal/ratelimit"
	"github.com/impactsolutionsas/transit-isochrones/internal/streetdump"
	"github.com/impactsolutionsas/transit-isochrones/internal/transitarchive"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <street-network.osm.pbf> <transit-archive.zip>", os.Args[0])
	}
	streetPath, transitPath := os.Args[1], os.Args[2]

	log.Println("Starting isochrone server...")

	cfg := config.FromEnv()

	g, err := buildGraph(cfg, streetPath, transitPath)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	log.Printf("✓ Graph built: %d nodes", len(g.Nodes))

	isoCache, err := isocache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTLSec)
	if err != nil {
		log.Printf("Redis unavailable, running without isochrone cache: %v", err)
		isoCache = nil
	} else {
		log.Println("✓ Redis connection established")
		defer isoCache.Close()
	}

	var rdb *redis.Client
	if isoCache != nil {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
	}

	svc := &api.Service{Graph: g, Config: cfg, Cache: isoCache}

	app := fiber.New(fiber.Config{
		AppName:      "Transit Isochrones",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: api.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(ratelimit.Middleware(rdb, cfg.RateLimitPerSecond))

	app.Get("/health", svc.HealthHandler)
	app.Get("/isochrone", svc.IsochroneHandler)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "endpoint not found"})
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Server listening on http://localhost%s", cfg.ListenAddr)
	log.Printf("📍 Isochrone query: http://localhost%s/isochrone?lat=&lon=&arrival_time=&duration=", cfg.ListenAddr)
	log.Printf("❤️  Health check: http://localhost%s/health", cfg.ListenAddr)

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func buildGraph(cfg config.Config, streetPath, transitPath string) (*graph.Graph, error) {
	f, err := os.Open(streetPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	nodes, ways, err := streetdump.Decode(ctx, f, info.Size())
	if err != nil {
		return nil, err
	}

	stops, pathways, trips, err := transitarchive.Decode(transitPath)
	if err != nil {
		return nil, err
	}

	b := graphbuild.New(cfg.WalkingSpeedMPS)
	if err := b.LoadStreetNetwork(nodes, ways); err != nil {
		return nil, err
	}
	if err := b.LoadTransit(stops, pathways, trips); err != nil {
		return nil, err
	}
	return b.Finalize()
}
