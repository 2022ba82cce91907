// Package isocache caches computed isochrone GeoJSON by query
// parameters. Adapted from the teacher's internal/cache/redis.go: the
// same sha256-keyed, SETNX-locked "wait for the in-flight result"
// shape, repointed from cached routes to cached isochrones.
package isocache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client with isochrone-shaped get/set helpers. A
// nil *Cache is valid and behaves as an always-miss no-op cache, so
// callers can run without Redis available.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to the given Redis address. The caller should treat a
// non-nil error as non-fatal: the server can run with a nil *Cache.
func New(addr, password string, db int, ttlSeconds int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}

	return &Cache{client: client, ttl: time.Duration(ttlSeconds) * time.Second}, nil
}

// Key hashes the rounded query parameters into a stable cache key, the
// same way the teacher's RouteKey hashes route query coordinates.
func Key(lat, lon float64, arrivalTime, durationSec uint32) string {
	raw := fmt.Sprintf("%.6f,%.6f,%d,%d", lat, lon, arrivalTime, durationSec)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("isoline:%x", sum[:8])
}

// Get returns the cached GeoJSON body for key, or "", false on a miss
// or when the cache is unavailable.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		// Both a real miss (redis.Nil) and a flaky Redis degrade to a
		// cache miss here, never a query failure.
		return "", false
	}
	return val, true
}

// Set stores body under key with the cache's configured TTL. Errors
// are swallowed: a failed cache write must never fail the query.
func (c *Cache) Set(ctx context.Context, key, body string) {
	if c == nil {
		return
	}
	c.client.Set(ctx, key, body, c.ttl)
}

func (c *Cache) lockKey(key string) string { return "lock:" + key }

// AcquireLock attempts to become the single in-flight computation for
// key, using SETNX the way the teacher's AcquireLock does for routes.
func (c *Cache) AcquireLock(ctx context.Context, key string, ttl time.Duration) bool {
	if c == nil {
		return true // no cache: every caller computes independently
	}
	ok, err := c.client.SetNX(ctx, c.lockKey(key), "1", ttl).Result()
	return err == nil && ok
}

// ReleaseLock drops the in-flight marker for key.
func (c *Cache) ReleaseLock(ctx context.Context, key string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, c.lockKey(key))
}

// WaitForResult polls for up to timeout for another goroutine's
// in-flight computation to populate key, the same thundering-herd
// avoidance idiom as the teacher's WaitForLock.
func (c *Cache) WaitForResult(ctx context.Context, key string, timeout time.Duration) (string, bool) {
	if c == nil {
		return "", false
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if body, ok := c.Get(ctx, key); ok {
			return body, true
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(100 * time.Millisecond):
		}
	}
	return "", false
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
