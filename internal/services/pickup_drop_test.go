package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcare-dispatch-service/internal/domain"
)

func floatPtr(f float64) *float64 { return &f }

func heuristicFixtures(t *testing.T) (*domain.Staff, *domain.Patient) {
	t.Helper()
	staff := &domain.Staff{ID: 5, Name: "Nurse"}
	patient := &domain.Patient{
		ID: 9, Name: "Patient",
		Lat: floatPtr(25.30), Lng: floatPtr(55.32),
	}
	return staff, patient
}

func TestPickupDefaultsToOfficeForMorningAppointment(t *testing.T) {
	staff, patient := heuristicFixtures(t)
	appt := &domain.Appointment{ID: 1, Start: day(t, "09:00"), End: day(t, "09:30")}

	got := SuggestPickupDrop(appt, staff, patient, nil, nil, nil)

	require.NotNil(t, got)
	assert.Equal(t, domain.LocationOffice, got.PickupLocation)
}

func TestDropStaysOfficeOnShortGap(t *testing.T) {
	staff, patient := heuristicFixtures(t)
	appt := &domain.Appointment{ID: 1, Start: day(t, "13:00"), End: day(t, "13:30")}
	next := day(t, "15:00") // 90 minute gap

	got := SuggestPickupDrop(appt, staff, patient, nil, &next, nil)

	require.NotNil(t, got)
	assert.Equal(t, DecisionWait, got.Decision)
	assert.Equal(t, domain.LocationOffice, got.DropLocation)
	assert.Equal(t, 90, got.WaitMinutes)
}

func TestDropLeavesOnLongGap(t *testing.T) {
	staff, patient := heuristicFixtures(t)
	appt := &domain.Appointment{ID: 1, Start: day(t, "13:00"), End: day(t, "13:30")}
	next := day(t, "16:30") // 180 minute gap

	got := SuggestPickupDrop(appt, staff, patient, nil, &next, nil)

	require.NotNil(t, got)
	assert.Equal(t, DecisionLeave, got.Decision)
	assert.Contains(t, []domain.LocationType{domain.LocationHome, domain.LocationMetro}, got.DropLocation)
}

func TestDropPrefersNearbyHomeOnLeave(t *testing.T) {
	staff, patient := heuristicFixtures(t)
	// Home 1-2 km from the patient, well inside the radius.
	staff.HomeLat, staff.HomeLng = floatPtr(25.31), floatPtr(55.32)
	appt := &domain.Appointment{ID: 1, Start: day(t, "13:00"), End: day(t, "13:30")}
	next := day(t, "16:30")

	got := SuggestPickupDrop(appt, staff, patient, nil, &next, nil)

	require.NotNil(t, got)
	assert.Equal(t, domain.LocationHome, got.DropLocation)
}

func TestDropFallsBackToMetroWhenHomeTooFar(t *testing.T) {
	staff, patient := heuristicFixtures(t)
	staff.HomeLat, staff.HomeLng = floatPtr(26.0), floatPtr(56.0)
	appt := &domain.Appointment{ID: 1, Start: day(t, "13:00"), End: day(t, "13:30")}
	next := day(t, "16:30")

	got := SuggestPickupDrop(appt, staff, patient, nil, &next, nil)

	require.NotNil(t, got)
	assert.Equal(t, domain.LocationMetro, got.DropLocation)
}

func TestLastAppointmentDropsAtOffice(t *testing.T) {
	staff, patient := heuristicFixtures(t)
	appt := &domain.Appointment{ID: 1, Start: day(t, "13:00"), End: day(t, "13:30")}

	got := SuggestPickupDrop(appt, staff, patient, nil, nil, nil)

	require.NotNil(t, got)
	assert.Equal(t, domain.LocationOffice, got.DropLocation)
}

func TestSuggestReturnsNilOnMissingInput(t *testing.T) {
	staff, patient := heuristicFixtures(t)
	appt := &domain.Appointment{ID: 1, Start: day(t, "13:00"), End: day(t, "13:30")}

	assert.Nil(t, SuggestPickupDrop(appt, nil, patient, nil, nil, nil))
	assert.Nil(t, SuggestPickupDrop(appt, staff, nil, nil, nil, nil))

	noCoords := &domain.Patient{ID: 9, Name: "Unresolvable"}
	assert.Nil(t, SuggestPickupDrop(appt, staff, noCoords, nil, nil, nil))
}

func TestSuggestWaitVsLeave(t *testing.T) {
	end := day(t, "13:30")

	assert.Equal(t, DecisionLeave, SuggestWaitVsLeave(end, nil, false))

	short := end.Add(90 * time.Minute)
	assert.Equal(t, DecisionWait, SuggestWaitVsLeave(end, &short, false))
	assert.Equal(t, DecisionLeave, SuggestWaitVsLeave(end, &short, true))

	long := end.Add(180 * time.Minute)
	assert.Equal(t, DecisionLeave, SuggestWaitVsLeave(end, &long, false))
}
