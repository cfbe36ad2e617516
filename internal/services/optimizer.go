package services

import (
	"context"
	"sort"
	"time"

	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/ports"
)

// OptimizeConstraints bounds what the optimizer may touch.
type OptimizeConstraints struct {
	LockedLegIDs map[string]bool

	// When true (the orchestrator's only mode), appointment legs and locked
	// legs are immovable delimiters and only the runs between them reorder.
	AppointmentTimesMustNotChange bool

	// Improvement passes applied after the greedy ordering.
	MaxIterations int
}

// OptimizeResult is the reordered leg list with its travel accounting.
type OptimizeResult struct {
	Legs                     []domain.TripLeg
	TotalTravelTimeMinutes   int
	OriginalTotalTimeMinutes int
	TimeSavedMinutes         int
	OptimizationScore        float64 // 1 - optimized/original, 0 when original is 0
}

// RouteOptimizer reorders the movable legs of a trip to cut total travel
// time. Travel times come from one batched matrix call per optimization; a
// reordering that would regress against the original order is discarded.
type RouteOptimizer struct {
	travel *TravelTimeService
}

func NewRouteOptimizer(travel *TravelTimeService) *RouteOptimizer {
	return &RouteOptimizer{travel: travel}
}

// Optimize reorders legs under the given constraints. Leg coordinates are
// supplied by leg ID; a movable segment containing a leg with no coordinates
// is left in its original order. Leg order values are rewritten 1..n on the
// way out.
func (o *RouteOptimizer) Optimize(
	ctx context.Context,
	legs []domain.TripLeg,
	coordsByLeg map[string]*domain.Coordinates,
	constraints OptimizeConstraints,
) OptimizeResult {
	if constraints.MaxIterations <= 0 {
		constraints.MaxIterations = 10
	}

	sorted := make([]domain.TripLeg, len(legs))
	copy(sorted, legs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PlannedArrival.Equal(sorted[j].PlannedArrival) {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].PlannedArrival.Before(sorted[j].PlannedArrival)
	})

	if len(sorted) <= 1 {
		return o.finish(ctx, sorted, sorted, coordsByLeg)
	}

	minutes := o.travelTable(ctx, sorted, coordsByLeg)

	var optimized []domain.TripLeg
	if constraints.AppointmentTimesMustNotChange {
		optimized = o.optimizeSegmented(sorted, coordsByLeg, minutes, constraints)
	} else {
		optimized = o.optimizePool(sorted, coordsByLeg, minutes, constraints)
	}

	return o.finishWithTable(sorted, optimized, minutes)
}

// optimizeSegmented partitions the chronological legs into immovable
// delimiters (appointment or locked legs) and movable runs, and reorders
// each run independently.
func (o *RouteOptimizer) optimizeSegmented(
	sorted []domain.TripLeg,
	coords map[string]*domain.Coordinates,
	minutes map[string]map[string]int,
	constraints OptimizeConstraints,
) []domain.TripLeg {
	isDelimiter := func(l domain.TripLeg) bool {
		return l.Type == domain.LegAppointment || l.Locked || constraints.LockedLegIDs[l.ID]
	}

	out := make([]domain.TripLeg, 0, len(sorted))
	run := []domain.TripLeg{}

	flush := func() {
		if len(run) > 0 {
			out = append(out, o.reorderSegment(run, coords, minutes, constraints.MaxIterations)...)
			run = nil
		}
	}

	for _, l := range sorted {
		if isDelimiter(l) {
			flush()
			out = append(out, l)
			continue
		}
		run = append(run, l)
	}
	flush()

	return out
}

// optimizePool treats the whole list as one segment, then re-splices locked
// legs back into their original absolute positions.
func (o *RouteOptimizer) optimizePool(
	sorted []domain.TripLeg,
	coords map[string]*domain.Coordinates,
	minutes map[string]map[string]int,
	constraints OptimizeConstraints,
) []domain.TripLeg {
	lockedAt := map[int]domain.TripLeg{}
	movable := []domain.TripLeg{}
	for i, l := range sorted {
		if l.Locked || constraints.LockedLegIDs[l.ID] {
			lockedAt[i] = l
		} else {
			movable = append(movable, l)
		}
	}

	reordered := o.reorderSegment(movable, coords, minutes, constraints.MaxIterations)

	out := make([]domain.TripLeg, 0, len(sorted))
	next := 0
	for i := 0; i < len(sorted); i++ {
		if l, ok := lockedAt[i]; ok {
			out = append(out, l)
			continue
		}
		out = append(out, reordered[next])
		next++
	}
	return out
}

// reorderSegment applies nearest-neighbor from the segment's first leg, then
// bounded adjacent-swap improvement passes. The permuted legs inherit the
// segment's original time slots in position order so arrival times stay
// monotonic. Segments of length <= 1 or with any unresolvable leg come back
// unchanged.
func (o *RouteOptimizer) reorderSegment(
	segment []domain.TripLeg,
	coords map[string]*domain.Coordinates,
	minutes map[string]map[string]int,
	maxIterations int,
) []domain.TripLeg {
	if len(segment) <= 1 {
		return segment
	}
	for _, l := range segment {
		if coords[l.ID] == nil {
			return segment
		}
	}

	travel := func(a, b domain.TripLeg) int { return minutes[a.ID][b.ID] }

	// Nearest neighbor anchored at the first leg.
	order := []domain.TripLeg{segment[0]}
	remaining := append([]domain.TripLeg{}, segment[1:]...)
	for len(remaining) > 0 {
		cur := order[len(order)-1]
		best := 0
		for i := 1; i < len(remaining); i++ {
			if travel(cur, remaining[i]) < travel(cur, remaining[best]) {
				best = i
			}
		}
		order = append(order, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	// Adjacent-swap passes until no improvement or the iteration cap.
	for iter := 0; iter < maxIterations; iter++ {
		improved := false
		for i := 0; i < len(order)-1; i++ {
			if segmentCost(order, travel) > segmentCostSwapped(order, i, travel) {
				order[i], order[i+1] = order[i+1], order[i]
				improved = true
			}
		}
		if !improved {
			break
		}
	}

	if segmentCost(order, travel) >= segmentCost(segment, travel) {
		return segment
	}

	// Reassign the original time slots by position.
	slots := make([]timeSlot, len(segment))
	for i, l := range segment {
		slots[i] = timeSlot{arrival: l.PlannedArrival, departure: l.PlannedDeparture, wait: l.WaitMinutes}
	}
	out := make([]domain.TripLeg, len(order))
	for i, l := range order {
		l.PlannedArrival = slots[i].arrival
		l.PlannedDeparture = slots[i].departure
		l.WaitMinutes = slots[i].wait
		out[i] = l
	}
	return out
}

type timeSlot struct {
	arrival   time.Time
	departure *time.Time
	wait      *int
}

func segmentCost(legs []domain.TripLeg, travel func(a, b domain.TripLeg) int) int {
	total := 0
	for i := 0; i < len(legs)-1; i++ {
		total += travel(legs[i], legs[i+1])
	}
	return total
}

func segmentCostSwapped(legs []domain.TripLeg, i int, travel func(a, b domain.TripLeg) int) int {
	swapped := make([]domain.TripLeg, len(legs))
	copy(swapped, legs)
	swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
	return segmentCost(swapped, travel)
}

// travelTable builds a leg-to-leg minute lookup from one matrix call over the
// distinct waypoints of all resolvable legs.
func (o *RouteOptimizer) travelTable(
	ctx context.Context,
	legs []domain.TripLeg,
	coords map[string]*domain.Coordinates,
) map[string]map[string]int {
	keyToIdx := map[string]int{}
	waypoints := []ports.Waypoint{}
	legKey := map[string]string{}

	for _, l := range legs {
		c := coords[l.ID]
		if c == nil {
			continue
		}
		key := c.String()
		legKey[l.ID] = key
		if _, ok := keyToIdx[key]; !ok {
			keyToIdx[key] = len(waypoints)
			waypoints = append(waypoints, ports.WaypointFromCoords(*c))
		}
	}

	var grid [][]TravelEstimate
	if len(waypoints) > 0 {
		grid = o.travel.Matrix(ctx, waypoints, waypoints, ports.MatrixOptions{})
	}

	table := make(map[string]map[string]int, len(legs))
	for _, a := range legs {
		ka, ok := legKey[a.ID]
		if !ok {
			continue
		}
		row := make(map[string]int, len(legs))
		for _, b := range legs {
			kb, ok := legKey[b.ID]
			if !ok {
				continue
			}
			row[b.ID] = grid[keyToIdx[ka]][keyToIdx[kb]].EffectiveMinutes()
		}
		table[a.ID] = row
	}
	return table
}

func (o *RouteOptimizer) finish(
	ctx context.Context,
	original, optimized []domain.TripLeg,
	coords map[string]*domain.Coordinates,
) OptimizeResult {
	minutes := o.travelTable(ctx, original, coords)
	return o.finishWithTable(original, optimized, minutes)
}

func (o *RouteOptimizer) finishWithTable(
	original, optimized []domain.TripLeg,
	minutes map[string]map[string]int,
) OptimizeResult {
	travel := func(a, b domain.TripLeg) int {
		if row, ok := minutes[a.ID]; ok {
			return row[b.ID]
		}
		return 0
	}

	originalTime := segmentCost(original, travel)
	optimizedTime := segmentCost(optimized, travel)

	// The greedy pass must never make the route worse than the original
	// order; fall back to the original when it would.
	if optimizedTime > originalTime {
		optimized = original
		optimizedTime = originalTime
	}

	out := make([]domain.TripLeg, len(optimized))
	copy(out, optimized)
	for i := range out {
		out[i].Order = i + 1
	}

	score := 0.0
	if originalTime > 0 {
		score = 1 - float64(optimizedTime)/float64(originalTime)
	}

	return OptimizeResult{
		Legs:                     out,
		TotalTravelTimeMinutes:   optimizedTime,
		OriginalTotalTimeMinutes: originalTime,
		TimeSavedMinutes:         originalTime - optimizedTime,
		OptimizationScore:        score,
	}
}
