package services

import (
	"context"
	"log"
	"math"

	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/geo"
	"fieldcare-dispatch-service/internal/metrics"
	"fieldcare-dispatch-service/internal/platform/obs"
	"fieldcare-dispatch-service/internal/ports"
)

// TravelEstimate is one travel-time answer, from either the live provider
// or the local geometric estimator.
type TravelEstimate struct {
	Minutes        int
	TrafficMinutes int
	HasTraffic     bool
	DistanceMeters int
	Status         string
}

// EffectiveMinutes prefers live-traffic data when present.
func (e TravelEstimate) EffectiveMinutes() int {
	if e.HasTraffic {
		return e.TrafficMinutes
	}
	return e.Minutes
}

// TravelTimeService answers single-pair, matrix, and waypoint-sequence
// travel queries. Provider calls are batched into matrix requests to
// minimize quota usage, results are cached when a cache is configured, and
// every failure degrades to the haversine estimator instead of surfacing an
// error: a missing provider key or a latched breaker leaves the engine fully
// functional at reduced accuracy.
type TravelTimeService struct {
	provider ports.MatrixProvider
	cache    ports.DistanceCache
}

func NewTravelTimeService(provider ports.MatrixProvider, cache ports.DistanceCache) *TravelTimeService {
	return &TravelTimeService{provider: provider, cache: cache}
}

// Pair estimates travel between two waypoints.
func (s *TravelTimeService) Pair(ctx context.Context, origin, destination ports.Waypoint, opts ports.MatrixOptions) TravelEstimate {
	grid := s.Matrix(ctx, []ports.Waypoint{origin}, []ports.Waypoint{destination}, opts)
	return grid[0][0]
}

// Matrix returns a grid of shape origins x destinations. It never fails as a
// whole: on provider errors every cell falls back independently to the local
// estimator.
func (s *TravelTimeService) Matrix(
	ctx context.Context,
	origins, destinations []ports.Waypoint,
	opts ports.MatrixOptions,
) [][]TravelEstimate {
	defer obs.Time(ctx, "travel.Matrix")(nil)

	out := make([][]TravelEstimate, len(origins))
	for i := range out {
		out[i] = make([]TravelEstimate, len(destinations))
	}
	if len(origins) == 0 || len(destinations) == 0 {
		return out
	}

	filled := s.fillFromCache(ctx, origins, destinations, out)

	if filled < len(origins)*len(destinations) {
		s.fillFromProvider(ctx, origins, destinations, opts, out)
	}

	// Whatever is still unresolved degrades to the geometric estimator.
	for i, o := range origins {
		for j, d := range destinations {
			if out[i][j].Status == "" {
				out[i][j] = fallbackEstimate(o, d)
			}
		}
	}

	return out
}

// Distance returns the road distance for one pair, falling back to the
// great-circle distance.
func (s *TravelTimeService) Distance(ctx context.Context, origin, destination ports.Waypoint, opts ports.MatrixOptions) (meters int, km float64, status string) {
	e := s.Pair(ctx, origin, destination, opts)
	return e.DistanceMeters, float64(e.DistanceMeters) / 1000, e.Status
}

// RouteMinutes sums effective travel time along a waypoint sequence.
func (s *TravelTimeService) RouteMinutes(ctx context.Context, waypoints []ports.Waypoint, opts ports.MatrixOptions) int {
	if len(waypoints) < 2 {
		return 0
	}

	// One matrix call covers every consecutive pair.
	grid := s.Matrix(ctx, waypoints, waypoints, opts)

	total := 0
	for i := 0; i < len(waypoints)-1; i++ {
		total += grid[i][i+1].EffectiveMinutes()
	}
	return total
}

func (s *TravelTimeService) fillFromCache(ctx context.Context, origins, destinations []ports.Waypoint, out [][]TravelEstimate) int {
	if s.cache == nil {
		return 0
	}

	destKeys := make([]string, len(destinations))
	for j, d := range destinations {
		destKeys[j] = d.Key()
	}

	filled := 0
	for i, o := range origins {
		hits, err := s.cache.GetMany(ctx, o.Key(), destKeys)
		if err != nil {
			log.Printf("distance cache read failed: %v", err)
			return filled
		}
		for j, key := range destKeys {
			r, ok := hits[key]
			if !ok {
				continue
			}
			out[i][j] = estimateFromResult(r)
			filled++
		}
	}

	return filled
}

func (s *TravelTimeService) fillFromProvider(ctx context.Context, origins, destinations []ports.Waypoint, opts ports.MatrixOptions, out [][]TravelEstimate) {
	res, err := s.provider.Matrix(ctx, origins, destinations, opts)
	if err != nil {
		// Unfilled cells degrade to the local estimator.
		metrics.FallbackEstimates.WithLabelValues("provider_error").Inc()
		return
	}

	for i := range origins {
		fresh := make(map[string]ports.DistanceResult)
		for j, d := range destinations {
			if out[i][j].Status != "" {
				continue // cache hit
			}
			cell := res.Rows[i][j]
			if cell.Status != ports.StatusOK {
				continue // per-element miss falls back below
			}
			out[i][j] = estimateFromResult(cell)
			fresh[d.Key()] = cell
		}

		if s.cache != nil && len(fresh) > 0 {
			if err := s.cache.PutMany(ctx, origins[i].Key(), fresh); err != nil {
				log.Printf("distance cache write failed: %v", err)
			}
		}
	}
}

func estimateFromResult(r ports.DistanceResult) TravelEstimate {
	return TravelEstimate{
		Minutes:        int(math.Round(float64(r.DurationSeconds) / 60)),
		TrafficMinutes: int(math.Round(float64(r.TrafficDurationSeconds) / 60)),
		HasTraffic:     r.HasTraffic,
		DistanceMeters: r.DistanceMeters,
		Status:         ports.StatusOK,
	}
}

// fallbackEstimate serves a pair from local geometry. Address-only waypoints
// cannot be estimated and degrade to a fixed default.
func fallbackEstimate(o, d ports.Waypoint) TravelEstimate {
	if o.Coords != nil && d.Coords != nil {
		km := domain.HaversineKm(*o.Coords, *d.Coords)
		metrics.FallbackEstimates.WithLabelValues("haversine").Inc()
		return TravelEstimate{
			Minutes:        geo.EstimateMinutes(km),
			DistanceMeters: int(math.Round(km * 1000)),
			Status:         ports.StatusFallback,
		}
	}

	metrics.FallbackEstimates.WithLabelValues("no_coordinates").Inc()
	return TravelEstimate{
		Minutes: geo.DefaultFallbackMinutes,
		Status:  ports.StatusFallbackNoCoord,
	}
}
