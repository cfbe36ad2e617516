package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcare-dispatch-service/internal/adapters/distance"
	"fieldcare-dispatch-service/internal/domain"
)

// fallbackOptimizer uses a failing provider so every travel time comes from
// the deterministic great-circle estimator.
func fallbackOptimizer() *RouteOptimizer {
	provider := &distance.MockMatrixProvider{Err: errors.New("provider down")}
	return NewRouteOptimizer(NewTravelTimeService(provider, nil))
}

func coordsAt(lat float64) *domain.Coordinates {
	return &domain.Coordinates{Lat: lat, Lng: 55.30}
}

func TestOptimizeSingleLegUnchanged(t *testing.T) {
	opt := fallbackOptimizer()
	legs := []domain.TripLeg{
		{ID: "l1", Type: domain.LegDropStaff, Order: 1, PlannedArrival: day(t, "10:00")},
	}

	got := opt.Optimize(context.Background(), legs, map[string]*domain.Coordinates{"l1": coordsAt(25.2)}, OptimizeConstraints{AppointmentTimesMustNotChange: true})

	require.Len(t, got.Legs, 1)
	assert.Equal(t, "l1", got.Legs[0].ID)
	assert.Equal(t, 0, got.TimeSavedMinutes)
	assert.Equal(t, 0.0, got.OptimizationScore)
}

func TestOptimizeReordersDetour(t *testing.T) {
	opt := fallbackOptimizer()

	// Original order visits the far stop before the near one.
	legs := []domain.TripLeg{
		{ID: "a", Type: domain.LegPickupStaff, Order: 1, PlannedArrival: day(t, "09:00")},
		{ID: "c", Type: domain.LegDropStaff, Order: 2, PlannedArrival: day(t, "10:00")},
		{ID: "b", Type: domain.LegDropStaff, Order: 3, PlannedArrival: day(t, "11:00")},
	}
	coords := map[string]*domain.Coordinates{
		"a": coordsAt(25.00),
		"c": coordsAt(25.20),
		"b": coordsAt(25.10),
	}

	got := opt.Optimize(context.Background(), legs, coords, OptimizeConstraints{AppointmentTimesMustNotChange: true})

	require.Len(t, got.Legs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got.Legs[0].ID, got.Legs[1].ID, got.Legs[2].ID})
	assert.Greater(t, got.TimeSavedMinutes, 0)
	assert.Greater(t, got.OptimizationScore, 0.0)
	assert.LessOrEqual(t, got.OptimizationScore, 1.0)

	// Orders rewritten sequentially, arrival times stay monotonic.
	for i, l := range got.Legs {
		assert.Equal(t, i+1, l.Order)
		if i > 0 {
			assert.False(t, l.PlannedArrival.Before(got.Legs[i-1].PlannedArrival))
		}
	}
}

func TestOptimizeNeverMovesLockedLegs(t *testing.T) {
	opt := fallbackOptimizer()

	legs := []domain.TripLeg{
		{ID: "a", Type: domain.LegPickupStaff, Order: 1, PlannedArrival: day(t, "09:00")},
		{ID: "locked", Type: domain.LegWait, Order: 2, Locked: true, PlannedArrival: day(t, "10:00")},
		{ID: "c", Type: domain.LegDropStaff, Order: 3, PlannedArrival: day(t, "11:00")},
	}
	coords := map[string]*domain.Coordinates{
		"a":      coordsAt(25.00),
		"locked": coordsAt(25.50),
		"c":      coordsAt(25.10),
	}

	got := opt.Optimize(context.Background(), legs, coords, OptimizeConstraints{AppointmentTimesMustNotChange: true})

	require.Len(t, got.Legs, 3)
	assert.Equal(t, "locked", got.Legs[1].ID)
}

func TestOptimizeKeepsAppointmentTimes(t *testing.T) {
	opt := fallbackOptimizer()

	apptArrival := day(t, "10:00")
	legs := []domain.TripLeg{
		{ID: "p", Type: domain.LegPickupStaff, Order: 1, PlannedArrival: day(t, "09:30")},
		{ID: "appt", Type: domain.LegAppointment, Order: 2, PlannedArrival: apptArrival},
		{ID: "r", Type: domain.LegReturn, Order: 3, PlannedArrival: day(t, "10:45")},
	}
	coords := map[string]*domain.Coordinates{
		"p":    coordsAt(25.00),
		"appt": coordsAt(25.10),
		"r":    coordsAt(25.00),
	}

	got := opt.Optimize(context.Background(), legs, coords, OptimizeConstraints{AppointmentTimesMustNotChange: true})

	require.Len(t, got.Legs, 3)
	assert.Equal(t, "appt", got.Legs[1].ID)
	assert.True(t, got.Legs[1].PlannedArrival.Equal(apptArrival))
}

func TestOptimizeAbandonsSegmentWithMissingCoordinates(t *testing.T) {
	opt := fallbackOptimizer()

	legs := []domain.TripLeg{
		{ID: "a", Type: domain.LegPickupStaff, Order: 1, PlannedArrival: day(t, "09:00")},
		{ID: "c", Type: domain.LegDropStaff, Order: 2, PlannedArrival: day(t, "10:00")},
		{ID: "b", Type: domain.LegDropStaff, Order: 3, PlannedArrival: day(t, "11:00")},
	}
	coords := map[string]*domain.Coordinates{
		"a": coordsAt(25.00),
		"c": coordsAt(25.20),
		// "b" unresolvable: the whole segment keeps its original order.
	}

	got := opt.Optimize(context.Background(), legs, coords, OptimizeConstraints{AppointmentTimesMustNotChange: true})

	assert.Equal(t, []string{"a", "c", "b"}, []string{got.Legs[0].ID, got.Legs[1].ID, got.Legs[2].ID})
	assert.Equal(t, 0, got.TimeSavedMinutes)
}

func TestOptimizePoolModeResplicesLockedLegs(t *testing.T) {
	opt := fallbackOptimizer()

	legs := []domain.TripLeg{
		{ID: "a", Type: domain.LegPickupStaff, Order: 1, PlannedArrival: day(t, "09:00")},
		{ID: "locked", Type: domain.LegWait, Order: 2, Locked: true, PlannedArrival: day(t, "10:00")},
		{ID: "c", Type: domain.LegDropStaff, Order: 3, PlannedArrival: day(t, "11:00")},
		{ID: "b", Type: domain.LegDropStaff, Order: 4, PlannedArrival: day(t, "12:00")},
	}
	coords := map[string]*domain.Coordinates{
		"a":      coordsAt(25.00),
		"locked": coordsAt(25.05),
		"c":      coordsAt(25.20),
		"b":      coordsAt(25.10),
	}

	got := opt.Optimize(context.Background(), legs, coords, OptimizeConstraints{})

	require.Len(t, got.Legs, 4)
	assert.Equal(t, "locked", got.Legs[1].ID)
	assert.GreaterOrEqual(t, got.TimeSavedMinutes, 0)
}
