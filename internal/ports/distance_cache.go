package ports

import "context"

// DistanceCache persists origin->destination travel results so repeated
// planning runs do not re-spend provider quota. Keys are Waypoint keys and
// are expected to be consistent (already normalized) by the caller.
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}
