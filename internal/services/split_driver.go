package services

import (
	"fmt"
	"sort"

	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/geo"
)

// Slack required on top of the raw travel estimate before a single driver is
// trusted to cover both sides of a handoff.
const splitSlackMinutes = 10

// SplitSuggestion proposes handing a staff member between two drivers when
// one driver cannot feasibly cover both the inbound and outbound legs.
type SplitSuggestion struct {
	AppointmentID       int64
	StaffID             int64
	BlockingAppointment int64
	GapMinutes          int
	NeededMinutes       int
	Reason              string
}

// DetectSplitDriver flags an appointment whose timing makes a one-driver
// plan infeasible. It looks at the staff member's adjacent appointments on
// the same day: when the gap to a neighbor is smaller than the estimated
// travel between the two patients plus slack, a second driver is suggested.
// Nil means no split is needed.
func DetectSplitDriver(
	appt *domain.Appointment,
	primaryStaff *domain.Staff,
	allAppointments []*domain.Appointment,
	patients map[int64]*domain.Patient,
	drivers []*domain.Staff,
) *SplitSuggestion {
	if appt == nil || primaryStaff == nil || len(drivers) < 2 {
		return nil
	}

	loc := geo.ResolvePatient(patients[appt.PatientID])
	if loc == nil {
		return nil
	}

	// Same-day appointments for the same staff member, in time order.
	var others []*domain.Appointment
	for _, a := range allAppointments {
		if a.ID == appt.ID {
			continue
		}
		if a.PrimaryStaffID == nil || *a.PrimaryStaffID != primaryStaff.ID {
			continue
		}
		if a.Start.Format("2006-01-02") != appt.Start.Format("2006-01-02") {
			continue
		}
		others = append(others, a)
	}
	sort.Slice(others, func(i, j int) bool { return others[i].Start.Before(others[j].Start) })

	for _, other := range others {
		otherLoc := geo.ResolvePatient(patients[other.PatientID])
		if otherLoc == nil {
			continue
		}

		var gap int
		if other.Start.After(appt.End) {
			gap = int(other.Start.Sub(appt.End).Minutes())
		} else if appt.Start.After(other.End) {
			gap = int(appt.Start.Sub(other.End).Minutes())
		} else {
			continue // overlapping appointments are the conflict detector's problem
		}

		km := domain.HaversineKm(*loc.Coords, *otherLoc.Coords)
		needed := geo.EstimateMinutes(km) + splitSlackMinutes
		if gap < needed {
			return &SplitSuggestion{
				AppointmentID:       appt.ID,
				StaffID:             primaryStaff.ID,
				BlockingAppointment: other.ID,
				GapMinutes:          gap,
				NeededMinutes:       needed,
				Reason: fmt.Sprintf(
					"only %d min between appointments %d and %d, needs %d min travel",
					gap, appt.ID, other.ID, needed),
			}
		}
	}

	return nil
}
