package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcare-dispatch-service/internal/ports"
)

func newTestRedisCache(t *testing.T) *RedisDistanceCache {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisDistanceCacheFromClient(rdb, time.Hour)
}

func TestRedisDistanceCacheRoundTrip(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	want := map[string]ports.DistanceResult{
		"25.250000,55.300000": {
			DistanceMeters:         5000,
			DurationSeconds:        600,
			TrafficDurationSeconds: 720,
			HasTraffic:             true,
			Status:                 ports.StatusOK,
		},
		"25.260000,55.310000": {
			DistanceMeters:  8000,
			DurationSeconds: 900,
			Status:          ports.StatusOK,
		},
	}

	origin := "25.200000,55.270000"
	require.NoError(t, c.PutMany(ctx, origin, want))

	got, err := c.GetMany(ctx, origin, []string{
		"25.250000,55.300000",
		"25.260000,55.310000",
		"25.990000,55.990000", // miss
	})
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Equal(t, want["25.250000,55.300000"], got["25.250000,55.300000"])
	assert.Equal(t, want["25.260000,55.310000"], got["25.260000,55.310000"])
}

func TestRedisDistanceCacheEmptyInputs(t *testing.T) {
	c := newTestRedisCache(t)
	ctx := context.Background()

	got, err := c.GetMany(ctx, "origin", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.PutMany(ctx, "origin", nil))

	_, err = c.GetMany(ctx, "", []string{"x"})
	require.Error(t, err)
}
