package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcare-dispatch-service/internal/domain"
)

func splitFixtures() (map[int64]*domain.Patient, []*domain.Staff) {
	patients := map[int64]*domain.Patient{
		// Roughly 25 km apart.
		1: {ID: 1, Lat: floatPtr(25.20), Lng: floatPtr(55.30)},
		2: {ID: 2, Lat: floatPtr(25.43), Lng: floatPtr(55.30)},
	}
	drivers := []*domain.Staff{
		{ID: 10, IsDriver: true},
		{ID: 11, IsDriver: true},
	}
	return patients, drivers
}

func TestDetectSplitDriverFlagsTightHandoff(t *testing.T) {
	patients, drivers := splitFixtures()
	staff := &domain.Staff{ID: 20, Name: "Nurse"}

	appt := &domain.Appointment{
		ID: 1, PatientID: 1, PrimaryStaffID: int64Ptr(20),
		Start: day(t, "10:00"), End: day(t, "10:30"),
	}
	// Next appointment 20 minutes later, 25 km away: not coverable.
	next := &domain.Appointment{
		ID: 2, PatientID: 2, PrimaryStaffID: int64Ptr(20),
		Start: day(t, "10:50"), End: day(t, "11:20"),
	}

	got := DetectSplitDriver(appt, staff, []*domain.Appointment{appt, next}, patients, drivers)

	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.AppointmentID)
	assert.Equal(t, int64(2), got.BlockingAppointment)
	assert.Equal(t, 20, got.GapMinutes)
	assert.Greater(t, got.NeededMinutes, got.GapMinutes)
	assert.NotEmpty(t, got.Reason)
}

func TestDetectSplitDriverNilWhenGapIsGenerous(t *testing.T) {
	patients, drivers := splitFixtures()
	staff := &domain.Staff{ID: 20}

	appt := &domain.Appointment{
		ID: 1, PatientID: 1, PrimaryStaffID: int64Ptr(20),
		Start: day(t, "10:00"), End: day(t, "10:30"),
	}
	next := &domain.Appointment{
		ID: 2, PatientID: 2, PrimaryStaffID: int64Ptr(20),
		Start: day(t, "13:00"), End: day(t, "13:30"),
	}

	got := DetectSplitDriver(appt, staff, []*domain.Appointment{appt, next}, patients, drivers)
	assert.Nil(t, got)
}

func TestDetectSplitDriverIgnoresOtherStaff(t *testing.T) {
	patients, drivers := splitFixtures()
	staff := &domain.Staff{ID: 20}

	appt := &domain.Appointment{
		ID: 1, PatientID: 1, PrimaryStaffID: int64Ptr(20),
		Start: day(t, "10:00"), End: day(t, "10:30"),
	}
	otherStaff := &domain.Appointment{
		ID: 2, PatientID: 2, PrimaryStaffID: int64Ptr(21),
		Start: day(t, "10:50"), End: day(t, "11:20"),
	}

	got := DetectSplitDriver(appt, staff, []*domain.Appointment{appt, otherStaff}, patients, drivers)
	assert.Nil(t, got)
}

func TestDetectSplitDriverNeedsTwoDrivers(t *testing.T) {
	patients, _ := splitFixtures()
	staff := &domain.Staff{ID: 20}

	appt := &domain.Appointment{
		ID: 1, PatientID: 1, PrimaryStaffID: int64Ptr(20),
		Start: day(t, "10:00"), End: day(t, "10:30"),
	}
	next := &domain.Appointment{
		ID: 2, PatientID: 2, PrimaryStaffID: int64Ptr(20),
		Start: day(t, "10:50"), End: day(t, "11:20"),
	}

	oneDriver := []*domain.Staff{{ID: 10, IsDriver: true}}
	got := DetectSplitDriver(appt, staff, []*domain.Appointment{appt, next}, patients, oneDriver)
	assert.Nil(t, got)
}
