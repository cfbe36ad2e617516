package services

import (
	"fmt"
	"time"

	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/geo"
)

const (
	// Gaps at or under this threshold keep the driver waiting at the patient.
	waitThresholdMinutes = 120

	// Home is only a drop candidate inside this radius of the patient.
	homeRadiusKm = 10.0

	// A recent previous appointment makes home a pickup candidate.
	recentPrevMinutes = 60

	// Morning appointments always collect staff at the office.
	morningCutoffHour = 12
)

// WaitDecision is the outcome of the wait-vs-leave rule.
type WaitDecision string

const (
	DecisionWait  WaitDecision = "wait"
	DecisionLeave WaitDecision = "leave"
)

// PickupDropSuggestion is the heuristic's answer for one appointment.
type PickupDropSuggestion struct {
	PickupLocation   domain.LocationType
	DropLocation     domain.LocationType
	Decision         WaitDecision
	WaitMinutes      int
	Reasoning        string
	TimeSavedMinutes int
	DistanceSavedKm  float64
}

// SuggestPickupDrop decides where to collect and return the staff member for
// an appointment. Returns nil when the staff or patient record is missing or
// the patient has no resolvable coordinates; callers skip the appointment.
func SuggestPickupDrop(
	appt *domain.Appointment,
	staff *domain.Staff,
	patient *domain.Patient,
	prevEnd, nextStart *time.Time,
	officeOverride *domain.Coordinates,
) *PickupDropSuggestion {
	if appt == nil || staff == nil || patient == nil {
		return nil
	}
	patientLoc := geo.ResolvePatient(patient)
	if patientLoc == nil {
		return nil
	}

	office := geo.OfficeLocation(officeOverride)
	home := geo.StaffHomeLocation(staff)
	metro := geo.MetroLocation("", nil)

	officeKm := domain.HaversineKm(*office.Coords, *patientLoc.Coords)

	s := &PickupDropSuggestion{
		PickupLocation: domain.LocationOffice,
		DropLocation:   domain.LocationOffice,
	}

	// Pickup rule.
	switch {
	case appt.Start.Hour() < morningCutoffHour:
		s.Reasoning = "morning appointment, pickup at office"
	case prevEnd != nil && appt.Start.Sub(*prevEnd) < recentPrevMinutes*time.Minute && home != nil:
		homeKm := domain.HaversineKm(*home.Coords, *patientLoc.Coords)
		if homeKm < officeKm {
			s.PickupLocation = domain.LocationHome
			s.DistanceSavedKm = officeKm - homeKm
			s.TimeSavedMinutes = geo.EstimateMinutes(officeKm) - geo.EstimateMinutes(homeKm)
			s.Reasoning = fmt.Sprintf("home is %.1f km closer than office after recent appointment", officeKm-homeKm)
		} else {
			s.Reasoning = "office closer than home, pickup at office"
		}
	default:
		s.Reasoning = "no recent previous appointment, pickup at office"
	}

	// Drop rule.
	if nextStart == nil {
		s.Decision = DecisionLeave
		s.Reasoning += "; last appointment, drop at office"
		return s
	}

	wait := int(nextStart.Sub(appt.End).Minutes())
	s.WaitMinutes = wait
	if wait <= waitThresholdMinutes {
		s.Decision = DecisionWait
		s.Reasoning += fmt.Sprintf("; %d min gap, driver waits", wait)
		return s
	}

	s.Decision = DecisionLeave
	metroKm := domain.HaversineKm(*metro.Coords, *patientLoc.Coords)
	if home != nil {
		homeKm := domain.HaversineKm(*home.Coords, *patientLoc.Coords)
		if homeKm < metroKm && homeKm <= homeRadiusKm {
			s.DropLocation = domain.LocationHome
			s.Reasoning += fmt.Sprintf("; %d min gap, staff leaves, home within %.0f km", wait, homeRadiusKm)
			return s
		}
	}
	s.DropLocation = domain.LocationMetro
	s.Reasoning += fmt.Sprintf("; %d min gap, staff leaves via metro", wait)
	return s
}

// SuggestWaitVsLeave encodes the gap rule standalone. No next appointment
// means the staff member leaves; a short gap with no other jobs means the
// driver waits.
func SuggestWaitVsLeave(end time.Time, nextStart *time.Time, hasOtherJobs bool) WaitDecision {
	if nextStart == nil {
		return DecisionLeave
	}
	wait := nextStart.Sub(end)
	if wait <= waitThresholdMinutes*time.Minute && !hasOtherJobs {
		return DecisionWait
	}
	return DecisionLeave
}
