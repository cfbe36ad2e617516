package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcare-dispatch-service/internal/adapters/distance"
	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/geo"
	"fieldcare-dispatch-service/internal/ports"
)

// memCache is an in-process DistanceCache for exercising the cache path.
type memCache struct {
	m map[string]ports.DistanceResult
}

func newMemCache() *memCache { return &memCache{m: map[string]ports.DistanceResult{}} }

func (c *memCache) GetMany(ctx context.Context, origin string, destinations []string) (map[string]ports.DistanceResult, error) {
	out := map[string]ports.DistanceResult{}
	for _, d := range destinations {
		if r, ok := c.m[origin+"|"+d]; ok {
			out[d] = r
		}
	}
	return out, nil
}

func (c *memCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
	for d, r := range results {
		c.m[origin+"|"+d] = r
	}
	return nil
}

func wp(lat, lng float64) ports.Waypoint {
	return ports.WaypointFromCoords(domain.Coordinates{Lat: lat, Lng: lng})
}

func TestPairUsesProviderResult(t *testing.T) {
	a, b := wp(25.2, 55.3), wp(25.3, 55.3)
	provider := distance.NewMockMatrixProvider([]distance.MockPair{
		{From: a.Key(), To: b.Key(), Meters: 12000, Seconds: 900},
	})
	svc := NewTravelTimeService(provider, nil)

	got := svc.Pair(context.Background(), a, b, ports.MatrixOptions{})

	assert.Equal(t, ports.StatusOK, got.Status)
	assert.Equal(t, 15, got.Minutes)
	assert.Equal(t, 12000, got.DistanceMeters)
}

func TestMatrixFallsBackPerCellOnProviderError(t *testing.T) {
	provider := &distance.MockMatrixProvider{Err: errors.New("network down")}
	svc := NewTravelTimeService(provider, nil)

	a, b := wp(25.2, 55.3), wp(25.3, 55.3)
	grid := svc.Matrix(context.Background(), []ports.Waypoint{a}, []ports.Waypoint{b}, ports.MatrixOptions{})

	require.Len(t, grid, 1)
	require.Len(t, grid[0], 1)
	got := grid[0][0]

	assert.Equal(t, ports.StatusFallback, got.Status)
	km := domain.HaversineKm(*a.Coords, *b.Coords)
	assert.Equal(t, geo.EstimateMinutes(km), got.Minutes)
}

func TestMatrixAddressOnlyFallsBackToDefault(t *testing.T) {
	provider := &distance.MockMatrixProvider{Err: errors.New("network down")}
	svc := NewTravelTimeService(provider, nil)

	origin := ports.Waypoint{Address: "12 Al Wasl Rd"}
	dest := wp(25.3, 55.3)
	grid := svc.Matrix(context.Background(), []ports.Waypoint{origin}, []ports.Waypoint{dest}, ports.MatrixOptions{})

	got := grid[0][0]
	assert.Equal(t, ports.StatusFallbackNoCoord, got.Status)
	assert.Equal(t, geo.DefaultFallbackMinutes, got.Minutes)
}

func TestMatrixServesRepeatQueriesFromCache(t *testing.T) {
	a, b := wp(25.2, 55.3), wp(25.3, 55.3)
	provider := distance.NewMockMatrixProvider([]distance.MockPair{
		{From: a.Key(), To: b.Key(), Meters: 12000, Seconds: 900},
	})
	svc := NewTravelTimeService(provider, newMemCache())
	ctx := context.Background()

	first := svc.Matrix(ctx, []ports.Waypoint{a}, []ports.Waypoint{b}, ports.MatrixOptions{})
	require.Equal(t, 1, provider.Calls)

	second := svc.Matrix(ctx, []ports.Waypoint{a}, []ports.Waypoint{b}, ports.MatrixOptions{})
	assert.Equal(t, 1, provider.Calls, "second query must be a cache hit")
	assert.Equal(t, first[0][0], second[0][0])
}

func TestEffectiveMinutesPrefersTraffic(t *testing.T) {
	e := TravelEstimate{Minutes: 20, TrafficMinutes: 35, HasTraffic: true}
	assert.Equal(t, 35, e.EffectiveMinutes())

	e.HasTraffic = false
	assert.Equal(t, 20, e.EffectiveMinutes())
}

func TestRouteMinutesSumsConsecutivePairs(t *testing.T) {
	a, b, c := wp(25.2, 55.3), wp(25.3, 55.3), wp(25.4, 55.3)
	provider := distance.NewMockMatrixProvider([]distance.MockPair{
		{From: a.Key(), To: b.Key(), Meters: 10000, Seconds: 600},
		{From: b.Key(), To: c.Key(), Meters: 10000, Seconds: 1200},
		{From: a.Key(), To: c.Key(), Meters: 20000, Seconds: 1800},
		{From: b.Key(), To: a.Key(), Meters: 10000, Seconds: 600},
		{From: c.Key(), To: b.Key(), Meters: 10000, Seconds: 1200},
		{From: c.Key(), To: a.Key(), Meters: 20000, Seconds: 1800},
	})
	svc := NewTravelTimeService(provider, nil)

	got := svc.RouteMinutes(context.Background(), []ports.Waypoint{a, b, c}, ports.MatrixOptions{})
	assert.Equal(t, 30, got)

	assert.Equal(t, 0, svc.RouteMinutes(context.Background(), []ports.Waypoint{a}, ports.MatrixOptions{}))
}
