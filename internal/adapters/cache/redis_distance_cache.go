package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"fieldcare-dispatch-service/internal/ports"
)

// RedisDistanceCache shares travel results across service instances.
// Entries expire so stale traffic-era estimates age out.
type RedisDistanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDistanceCache(url string, ttl time.Duration) (*RedisDistanceCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis distance cache: parse url: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDistanceCache{rdb: redis.NewClient(opt), ttl: ttl}, nil
}

// NewRedisDistanceCacheFromClient wraps an existing client (used in tests).
func NewRedisDistanceCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisDistanceCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDistanceCache{rdb: rdb, ttl: ttl}
}

func (c *RedisDistanceCache) key(origin, destination string) string {
	return "dist:" + origin + "|" + destination
}

// Fetch cached results for one origin and multiple destinations in one
// round trip.
func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (map[string]ports.DistanceResult, error) {
	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	keys := make([]string, 0, len(destinations))
	for _, d := range destinations {
		keys = append(keys, c.key(origin, d))
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: mget: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}

		var r ports.DistanceResult
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			// Treat corrupt entries as misses.
			continue
		}
		out[destinations[i]] = r
	}

	return out, nil
}

// Store many results for a single origin.
func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) error {
	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}

	if len(results) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for dest, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("insert distance cache dest=%q: marshal: %w", dest, err)
		}
		pipe.Set(ctx, c.key(origin, dest), data, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert distance cache: pipeline exec: %w", err)
	}

	return nil
}
