package ports

import (
	"context"
	"time"

	"fieldcare-dispatch-service/internal/domain"
)

// Element statuses returned per matrix cell. Non-OK statuses are recoverable
// misses, never crashes; callers degrade to the local estimator.
const (
	StatusOK              = "OK"
	StatusNotFound        = "NOT_FOUND"
	StatusZeroResults     = "ZERO_RESULTS"
	StatusFallback        = "FALLBACK_ESTIMATE"
	StatusFallbackNoCoord = "FALLBACK_DEFAULT"
)

// Waypoint is one end of a distance query: resolved coordinates when
// available, otherwise a free-text address the provider can interpret.
// The local fallback estimator cannot use address-only waypoints.
type Waypoint struct {
	Coords  *domain.Coordinates
	Address string
}

// WaypointFromCoords wraps coordinates as a Waypoint.
func WaypointFromCoords(c domain.Coordinates) Waypoint {
	return Waypoint{Coords: &c}
}

// Key returns a stable identifier for caching ("lat,lng" or the address).
func (w Waypoint) Key() string {
	if w.Coords != nil {
		return w.Coords.String()
	}
	return w.Address
}

// DistanceResult is the travel estimate for one origin/destination pair.
type DistanceResult struct {
	DistanceMeters         int
	DurationSeconds        int
	TrafficDurationSeconds int
	HasTraffic             bool
	Status                 string
}

// EffectiveSeconds prefers live-traffic duration when present.
func (r DistanceResult) EffectiveSeconds() int {
	if r.HasTraffic {
		return r.TrafficDurationSeconds
	}
	return r.DurationSeconds
}

// MatrixOptions are passed through to the routing provider.
type MatrixOptions struct {
	Mode          string // e.g. "driving"
	Avoid         string
	Units         string
	DepartureTime *time.Time
	TrafficModel  string
}

// MatrixResult is a result grid of shape origins x destinations.
type MatrixResult struct {
	Rows [][]DistanceResult
}

// MatrixProvider issues distance/duration queries against an external
// routing provider. Implementations own rate limiting and retries; a
// provider that has latched unavailable returns ErrProviderUnavailable
// without touching the network.
type MatrixProvider interface {
	Matrix(ctx context.Context, origins, destinations []Waypoint, opts MatrixOptions) (*MatrixResult, error)
}
