package services

import (
	"sort"
	"time"

	"fieldcare-dispatch-service/internal/domain"
)

// Working-day bounds applied when computing driver free windows.
const (
	workdayStartHour = 7
	workdayEndHour   = 21

	// Travel buffer reserved on both sides of every commitment.
	travelBufferMinutes = 15
)

// FreeWindow is a continuous span in which a driver has no commitments.
type FreeWindow struct {
	Start time.Time
	End   time.Time
}

// DriverSuggestion is one ranked candidate for an appointment.
type DriverSuggestion struct {
	DriverID   int64
	DriverName string
	Score      float64
	Window     FreeWindow
	Reason     string
}

// DriverAvailabilities computes each driver's free windows for a date by
// subtracting their existing trips and legs (padded with a travel buffer)
// from the working day. Legs can start before their trip's span (a pickup on
// the way in), so both are considered. Drivers with no commitments get the
// whole working day.
func DriverAvailabilities(
	drivers []*domain.Staff,
	existingTrips []*domain.DriverTrip,
	existingLegs []*domain.TripLeg,
	date string,
) map[int64][]FreeWindow {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return map[int64][]FreeWindow{}
	}

	dayStart := day.Add(workdayStartHour * time.Hour)
	dayEnd := day.Add(workdayEndHour * time.Hour)

	tripDriver := make(map[string]int64, len(existingTrips))
	busy := make(map[int64][]FreeWindow, len(drivers))
	for _, t := range existingTrips {
		if t.TripDate != date {
			continue
		}
		tripDriver[t.ID] = t.DriverID
		busy[t.DriverID] = append(busy[t.DriverID], FreeWindow{
			Start: t.Start.Add(-travelBufferMinutes * time.Minute),
			End:   t.End.Add(travelBufferMinutes * time.Minute),
		})
	}
	for _, l := range existingLegs {
		driverID, ok := tripDriver[l.TripID]
		if !ok {
			continue
		}
		end := l.PlannedArrival
		if l.PlannedDeparture != nil {
			end = *l.PlannedDeparture
		}
		busy[driverID] = append(busy[driverID], FreeWindow{
			Start: l.PlannedArrival.Add(-travelBufferMinutes * time.Minute),
			End:   end.Add(travelBufferMinutes * time.Minute),
		})
	}

	out := make(map[int64][]FreeWindow, len(drivers))
	for _, d := range drivers {
		spans := busy[d.ID]
		sort.Slice(spans, func(i, j int) bool { return spans[i].Start.Before(spans[j].Start) })

		windows := []FreeWindow{}
		cursor := dayStart
		for _, b := range spans {
			if b.Start.After(cursor) {
				windows = append(windows, FreeWindow{Start: cursor, End: minTime(b.Start, dayEnd)})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
		}
		if cursor.Before(dayEnd) {
			windows = append(windows, FreeWindow{Start: cursor, End: dayEnd})
		}

		out[d.ID] = windows
	}

	return out
}

// SuggestDrivers ranks candidate drivers for an appointment, best first.
// An empty result means no feasible driver; the appointment is reported
// unassigned upstream, which is not an error.
//
// Ranking weighs time-window fit (a tighter enclosing window wins, keeping
// large windows free for harder appointments) and proximity of the driver's
// home base to the patient.
func SuggestDrivers(
	appt *domain.Appointment,
	patientLoc *domain.Location,
	drivers []*domain.Staff,
	availabilities map[int64][]FreeWindow,
) []DriverSuggestion {
	if appt == nil {
		return nil
	}

	need := FreeWindow{
		Start: appt.Start.Add(-travelBufferMinutes * time.Minute),
		End:   appt.End.Add(travelBufferMinutes * time.Minute),
	}

	suggestions := make([]DriverSuggestion, 0, len(drivers))
	for _, d := range drivers {
		window, ok := enclosingWindow(availabilities[d.ID], need)
		if !ok {
			continue
		}

		slack := window.End.Sub(window.Start) - need.End.Sub(need.Start)
		fit := 1.0 / (1.0 + slack.Hours())

		proximity := 0.5 // neutral when either side lacks coordinates
		if patientLoc != nil && patientLoc.Coords != nil && d.HomeLat != nil && d.HomeLng != nil {
			home := domain.Coordinates{Lat: *d.HomeLat, Lng: *d.HomeLng}
			km := domain.HaversineKm(home, *patientLoc.Coords)
			proximity = 1.0 / (1.0 + km/10)
		}

		suggestions = append(suggestions, DriverSuggestion{
			DriverID:   d.ID,
			DriverName: d.Name,
			Score:      0.6*fit + 0.4*proximity,
			Window:     window,
			Reason:     "free window with travel buffer",
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score == suggestions[j].Score {
			return suggestions[i].DriverID < suggestions[j].DriverID
		}
		return suggestions[i].Score > suggestions[j].Score
	})

	return suggestions
}

func enclosingWindow(windows []FreeWindow, need FreeWindow) (FreeWindow, bool) {
	for _, w := range windows {
		if !w.Start.After(need.Start) && !w.End.Before(need.End) {
			return w, true
		}
	}
	return FreeWindow{}, false
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
