package services

import (
	"fmt"
	"sort"

	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/geo"
)

// ConflictContext carries everything the detector needs to judge one trip.
type ConflictContext struct {
	Trip           *domain.DriverTrip
	Legs           []domain.TripLeg
	Appointments   map[int64]*domain.Appointment
	Patients       map[int64]*domain.Patient
	Staff          map[int64]*domain.Staff
	OfficeOverride *domain.Coordinates
}

// DetectConflicts inspects a candidate trip's legs for sequencing and timing
// problems. An empty result means a clean trip, not a failure.
//
// Checks: a drop_staff leg ordered before its matching pickup_staff leg, an
// appointment leg whose staff was never picked up beforehand, transitions
// whose available time is under the estimated travel time, and overlapping
// planned times between consecutive legs.
func DetectConflicts(cc ConflictContext) []domain.RouteConflict {
	legs := make([]domain.TripLeg, len(cc.Legs))
	copy(legs, cc.Legs)
	sort.Slice(legs, func(i, j int) bool { return legs[i].Order < legs[j].Order })

	conflicts := []domain.RouteConflict{}
	pickedUp := map[int64]bool{}

	for _, leg := range legs {
		switch leg.Type {
		case domain.LegPickupStaff:
			if leg.StaffID != nil {
				pickedUp[*leg.StaffID] = true
			}
		case domain.LegDropStaff:
			if leg.StaffID != nil && !pickedUp[*leg.StaffID] {
				conflicts = append(conflicts, domain.RouteConflict{
					LegID:    leg.ID,
					Category: domain.ConflictDropBeforePickup,
					Severity: domain.SeverityError,
					Detail:   fmt.Sprintf("staff %d dropped before any pickup", *leg.StaffID),
				})
			}
		case domain.LegAppointment:
			if leg.StaffID != nil && !pickedUp[*leg.StaffID] {
				conflicts = append(conflicts, domain.RouteConflict{
					LegID:         leg.ID,
					AppointmentID: leg.AppointmentID,
					Category:      domain.ConflictMissingPickup,
					Severity:      domain.SeverityError,
					Detail:        fmt.Sprintf("appointment leg for staff %d without a prior pickup", *leg.StaffID),
				})
			}
		}
	}

	for i := 1; i < len(legs); i++ {
		prev, cur := legs[i-1], legs[i]

		prevDep := prev.PlannedArrival
		if prev.PlannedDeparture != nil {
			prevDep = *prev.PlannedDeparture
		}

		if cur.PlannedArrival.Before(prevDep) {
			conflicts = append(conflicts, domain.RouteConflict{
				LegID:    cur.ID,
				Category: domain.ConflictTimeOverlap,
				Severity: domain.SeverityError,
				Detail: fmt.Sprintf("leg %s arrives at %s before leg %s departs at %s",
					cur.ID, cur.PlannedArrival.Format("15:04"), prev.ID, prevDep.Format("15:04")),
			})
			continue
		}

		from := legCoordinates(prev, cc)
		to := legCoordinates(cur, cc)
		if from == nil || to == nil {
			continue
		}

		available := int(cur.PlannedArrival.Sub(prevDep).Minutes())
		needed := geo.EstimateTravelMinutes(*from, *to)
		if available < needed {
			conflicts = append(conflicts, domain.RouteConflict{
				LegID:    cur.ID,
				Category: domain.ConflictInfeasibleTransition,
				Severity: domain.SeverityWarning,
				Detail: fmt.Sprintf("%d min available for a transition estimated at %d min",
					available, needed),
			})
		}
	}

	return conflicts
}

// legCoordinates resolves a leg's physical location. Nil when the leg has no
// resolvable coordinates; such transitions are skipped rather than flagged.
func legCoordinates(leg domain.TripLeg, cc ConflictContext) *domain.Coordinates {
	switch leg.LocationType {
	case domain.LocationOffice:
		return geo.OfficeLocation(cc.OfficeOverride).Coords
	case domain.LocationMetro:
		return geo.MetroLocation("", nil).Coords
	case domain.LocationHome:
		if leg.StaffID != nil {
			if home := geo.StaffHomeLocation(cc.Staff[*leg.StaffID]); home != nil {
				return home.Coords
			}
		}
	case domain.LocationPatient:
		var patientID int64
		if leg.LocationID != nil {
			patientID = *leg.LocationID
		} else if leg.AppointmentID != nil {
			if a := cc.Appointments[*leg.AppointmentID]; a != nil {
				patientID = a.PatientID
			}
		}
		if loc := geo.ResolvePatient(cc.Patients[patientID]); loc != nil {
			return loc.Coords
		}
	}
	return nil
}
