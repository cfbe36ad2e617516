package geo

import (
	"math"

	"fieldcare-dispatch-service/internal/domain"
)

// DefaultFallbackMinutes is the travel-time estimate used when a pair cannot
// be estimated geometrically (e.g., address-only waypoints).
const DefaultFallbackMinutes = 30

// EstimateMinutes converts a great-circle distance to a travel-time estimate:
// an assumed ~30 km/h average urban speed plus a fixed 10-minute overhead,
// floored at 5 minutes. The estimate has no traffic awareness.
func EstimateMinutes(km float64) int {
	m := int(math.Round(km*2 + 10))
	if m < 5 {
		return 5
	}
	return m
}

// EstimateTravelMinutes estimates travel time between two coordinate pairs.
func EstimateTravelMinutes(a, b domain.Coordinates) int {
	return EstimateMinutes(domain.HaversineKm(a, b))
}
