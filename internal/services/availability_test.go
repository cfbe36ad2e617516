package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcare-dispatch-service/internal/domain"
)

func day(t *testing.T, hhmm string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	require.NoError(t, err)
	return ts
}

func TestDriverAvailabilitiesFullDayWithoutTrips(t *testing.T) {
	drivers := []*domain.Staff{{ID: 1, Name: "A", IsDriver: true}}

	got := DriverAvailabilities(drivers, nil, nil, "2026-03-02")

	require.Len(t, got[1], 1)
	assert.Equal(t, day(t, "07:00"), got[1][0].Start)
	assert.Equal(t, day(t, "21:00"), got[1][0].End)
}

func TestDriverAvailabilitiesSubtractsTripsWithBuffer(t *testing.T) {
	drivers := []*domain.Staff{{ID: 1, IsDriver: true}}
	trips := []*domain.DriverTrip{
		{ID: "t1", DriverID: 1, TripDate: "2026-03-02", Start: day(t, "10:00"), End: day(t, "12:00")},
	}

	got := DriverAvailabilities(drivers, trips, nil, "2026-03-02")

	require.Len(t, got[1], 2)
	assert.Equal(t, day(t, "07:00"), got[1][0].Start)
	assert.Equal(t, day(t, "09:45"), got[1][0].End)
	assert.Equal(t, day(t, "12:15"), got[1][1].Start)
	assert.Equal(t, day(t, "21:00"), got[1][1].End)
}

func TestDriverAvailabilitiesCountsLegsOutsideTripSpan(t *testing.T) {
	drivers := []*domain.Staff{{ID: 1, IsDriver: true}}
	trips := []*domain.DriverTrip{
		{ID: "t1", DriverID: 1, TripDate: "2026-03-02", Start: day(t, "10:00"), End: day(t, "12:00")},
	}
	// A pickup on the way in starts before the trip itself.
	legs := []*domain.TripLeg{
		{ID: "l1", TripID: "t1", Type: domain.LegPickupStaff, Order: 1, PlannedArrival: day(t, "09:30")},
	}

	got := DriverAvailabilities(drivers, trips, legs, "2026-03-02")

	require.NotEmpty(t, got[1])
	assert.Equal(t, day(t, "09:15"), got[1][0].End)
}

func TestDriverAvailabilitiesIgnoresOtherDates(t *testing.T) {
	drivers := []*domain.Staff{{ID: 1, IsDriver: true}}
	trips := []*domain.DriverTrip{
		{ID: "t1", DriverID: 1, TripDate: "2026-03-03", Start: day(t, "10:00"), End: day(t, "12:00")},
	}

	got := DriverAvailabilities(drivers, trips, nil, "2026-03-02")
	require.Len(t, got[1], 1)
}

func TestSuggestDriversExcludesBusyDrivers(t *testing.T) {
	appt := &domain.Appointment{ID: 1, Start: day(t, "10:00"), End: day(t, "10:30")}
	drivers := []*domain.Staff{
		{ID: 1, Name: "Free", IsDriver: true},
		{ID: 2, Name: "Busy", IsDriver: true},
	}
	trips := []*domain.DriverTrip{
		{ID: "t1", DriverID: 2, TripDate: "2026-03-02", Start: day(t, "09:30"), End: day(t, "11:00")},
	}
	avail := DriverAvailabilities(drivers, trips, nil, "2026-03-02")

	got := SuggestDrivers(appt, nil, drivers, avail)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].DriverID)
	assert.Equal(t, "Free", got[0].DriverName)
}

func TestSuggestDriversPrefersNearbyHome(t *testing.T) {
	appt := &domain.Appointment{ID: 1, Start: day(t, "10:00"), End: day(t, "10:30")}
	patientLoc := &domain.Location{
		Type:   domain.LocationPatient,
		Coords: &domain.Coordinates{Lat: 25.20, Lng: 55.30},
	}

	nearLat, nearLng := 25.21, 55.30
	farLat, farLng := 25.90, 55.90
	drivers := []*domain.Staff{
		{ID: 1, Name: "Far", IsDriver: true, HomeLat: &farLat, HomeLng: &farLng},
		{ID: 2, Name: "Near", IsDriver: true, HomeLat: &nearLat, HomeLng: &nearLng},
	}
	avail := DriverAvailabilities(drivers, nil, nil, "2026-03-02")

	got := SuggestDrivers(appt, patientLoc, drivers, avail)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].DriverID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestSuggestDriversEmptyMeansUnassigned(t *testing.T) {
	appt := &domain.Appointment{ID: 1, Start: day(t, "06:00"), End: day(t, "06:30")}
	drivers := []*domain.Staff{{ID: 1, IsDriver: true}}
	avail := DriverAvailabilities(drivers, nil, nil, "2026-03-02")

	got := SuggestDrivers(appt, nil, drivers, avail)
	assert.Empty(t, got)
}

func TestSuggestDriversTieBreaksOnLowerID(t *testing.T) {
	appt := &domain.Appointment{ID: 1, Start: day(t, "10:00"), End: day(t, "10:30")}
	drivers := []*domain.Staff{
		{ID: 7, IsDriver: true},
		{ID: 3, IsDriver: true},
	}
	avail := DriverAvailabilities(drivers, nil, nil, "2026-03-02")

	got := SuggestDrivers(appt, nil, drivers, avail)

	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].DriverID)
}
