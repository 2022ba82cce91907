// Package api exposes the isochrone query as a Fiber HTTP handler,
// following the teacher's cmd/api/main.go wiring: fiber.New with
// recover/logger/cors middleware and a custom error handler mapping
// typed errors to status codes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/impactsolutionsas/transit-isochrones/internal/config"
	"github.com/impactsolutionsas/transit-isochrones/internal/engineerr"
	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/impactsolutionsas/transit-isochrones/internal/isocache"
	"github.com/impactsolutionsas/transit-isochrones/internal/isoline"
	"github.com/impactsolutionsas/transit-isochrones/internal/reach"
	"github.com/impactsolutionsas/transit-isochrones/internal/transitarchive"
)

// Service bundles the immutable graph with the configuration and
// optional cache the isochrone handler needs.
type Service struct {
	Graph  *graph.Graph
	Config config.Config
	Cache  *isocache.Cache
}

// IsochroneHandler handles GET /isochrone?lat=&lon=&arrival_time=&duration=.
func (s *Service) IsochroneHandler(c *fiber.Ctx) error {
	if c.Query("lat") == "" {
		return fmt.Errorf("%w: missing lat", engineerr.ErrBadTime)
	}
	lat, err := c.QueryFloat("lat")
	if err != nil {
		return fmt.Errorf("%w: invalid lat", engineerr.ErrBadTime)
	}
	if c.Query("lon") == "" {
		return fmt.Errorf("%w: missing lon", engineerr.ErrBadTime)
	}
	lon, err := c.QueryFloat("lon")
	if err != nil {
		return fmt.Errorf("%w: invalid lon", engineerr.ErrBadTime)
	}

	arrivalStr := c.Query("arrival_time")
	arrivalSec, err := transitarchive.ParseTimeToSeconds(arrivalStr)
	if err != nil || arrivalSec < 0 || arrivalSec >= 86400 {
		return fmt.Errorf("%w: arrival_time %q", engineerr.ErrBadTime, arrivalStr)
	}

	duration := c.QueryInt("duration", -1)
	if duration < 0 {
		return fmt.Errorf("%w: missing or invalid duration", engineerr.ErrBadTime)
	}

	arrivalTime := uint32(arrivalSec)
	durationSec := uint32(duration)

	cacheKey := isocache.Key(lat, lon, arrivalTime, durationSec)
	ctx := c.Context()
	if body, ok := s.Cache.Get(ctx, cacheKey); ok {
		c.Set("Content-Type", "application/geo+json")
		return c.SendString(body)
	}

	acquired := s.Cache.AcquireLock(ctx, cacheKey, 30*time.Second)
	if !acquired {
		if body, ok := s.Cache.WaitForResult(ctx, cacheKey, 5*time.Second); ok {
			c.Set("Content-Type", "application/geo+json")
			return c.SendString(body)
		}
	}
	if acquired {
		defer s.Cache.ReleaseLock(ctx, cacheKey)
	}

	result, err := reach.Search(s.Graph, geo.Point{Lon: lon, Lat: lat}, arrivalTime, durationSec, reach.Options{
		WalkingSpeedMPS:   s.Config.WalkingSpeedMPS,
		MaxStartDistanceM: s.Config.MaxStartDistanceM,
	})
	if err != nil {
		return err
	}

	fc, err := isoline.Extract(s.Graph, result.Costs, isoline.Params{
		Start:              geo.Point{Lon: lon, Lat: lat},
		DurationSec:        durationSec,
		GridResolution:     s.Config.GridResolution,
		MaxTransitSpeedKPH: s.Config.MaxTransitSpeedKPH,
	})
	if err != nil {
		return err
	}

	body, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("%w: failed to encode geojson: %v", engineerr.ErrIsolineFailure, err)
	}

	s.Cache.Set(ctx, cacheKey, string(body))

	c.Set("Content-Type", "application/geo+json")
	return c.SendString(string(body))
}

// HealthHandler reports the in-memory graph's size as a basic liveness check.
func (s *Service) HealthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "nodes": len(s.Graph.Nodes)})
}

// ErrorHandler maps the engine's typed errors to HTTP status codes,
// following the teacher's customErrorHandler pattern in cmd/api/main.go.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	switch {
	case errors.Is(err, engineerr.ErrBadTime):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, engineerr.ErrStartTooFar):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, engineerr.ErrNoGraphNodes), errors.Is(err, engineerr.ErrIsolineFailure):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
