package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/geo"
	"fieldcare-dispatch-service/internal/metrics"
	"fieldcare-dispatch-service/internal/platform/obs"
	"fieldcare-dispatch-service/internal/ports"
)

// ConflictPolicy controls what happens to a draft whose legs fail validation.
type ConflictPolicy string

const (
	// PolicyWarn surfaces conflicts without touching confidence.
	PolicyWarn ConflictPolicy = "warn"
	// PolicyDowngrade keeps the draft but lowers its confidence score.
	PolicyDowngrade ConflictPolicy = "downgrade"
	// PolicyReject drops the draft and reports its appointments unassigned.
	PolicyReject ConflictPolicy = "reject"
)

// Flat travel assumption used when synthesizing pickup and return legs.
const legTravelMinutes = 15

// GeneratorConfig tunes one generator instance.
type GeneratorConfig struct {
	OfficeOverride *domain.Coordinates
	ConflictPolicy ConflictPolicy
}

// GenerateResult is the outcome of one generation run.
type GenerateResult struct {
	Drafts                 []domain.DraftRoute
	TotalAppointments      int
	AssignedAppointments   int
	UnassignedAppointments []int64
	SplitDriverSuggestions int
}

// DraftRouteGenerator turns a day's unplanned appointments into proposed
// driver trips for operator review. A run reads through the record store,
// never writes, and keeps no state between invocations.
type DraftRouteGenerator struct {
	store     ports.RecordStore
	travel    *TravelTimeService
	optimizer *RouteOptimizer
	cfg       GeneratorConfig
}

func NewDraftRouteGenerator(store ports.RecordStore, travel *TravelTimeService, cfg GeneratorConfig) *DraftRouteGenerator {
	if cfg.ConflictPolicy == "" {
		cfg.ConflictPolicy = PolicyDowngrade
	}
	return &DraftRouteGenerator{
		store:     store,
		travel:    travel,
		optimizer: NewRouteOptimizer(travel),
		cfg:       cfg,
	}
}

// Generate produces draft routes for a date. One appointment's failure never
// aborts the batch; it is reported unassigned and the run continues.
func (g *DraftRouteGenerator) Generate(ctx context.Context, date string) (res *GenerateResult, err error) {
	defer obs.Time(ctx, "drafts.Generate")(&err)

	in, err := g.collect(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("generateDraftRoutes: %w", err)
	}

	res = &GenerateResult{TotalAppointments: len(in.appointments)}
	if len(in.appointments) == 0 {
		return res, nil
	}

	availabilities := DriverAvailabilities(in.drivers, in.trips, in.legs, date)

	// Assign drivers in ascending start order. An assignment is final for
	// the run; appointments with no feasible driver go unassigned.
	byDriver := map[int64][]*domain.Appointment{}
	for _, appt := range in.appointments {
		patientLoc := geo.ResolvePatient(in.patients[appt.PatientID])
		if patientLoc == nil {
			log.Printf("appointment %d skipped: patient %d has no resolvable coordinates", appt.ID, appt.PatientID)
			res.UnassignedAppointments = append(res.UnassignedAppointments, appt.ID)
			continue
		}

		suggestions := SuggestDrivers(appt, patientLoc, in.drivers, availabilities)
		if len(suggestions) == 0 {
			res.UnassignedAppointments = append(res.UnassignedAppointments, appt.ID)
			continue
		}

		driverID := suggestions[0].DriverID
		byDriver[driverID] = append(byDriver[driverID], appt)

		if appt.PrimaryStaffID != nil {
			if s := DetectSplitDriver(appt, in.staff[*appt.PrimaryStaffID], in.appointments, in.patients, in.drivers); s != nil {
				log.Printf("split driver suggested: %s", s.Reason)
				res.SplitDriverSuggestions++
			}
		}
	}

	driverIDs := make([]int64, 0, len(byDriver))
	for id := range byDriver {
		driverIDs = append(driverIDs, id)
	}
	sort.Slice(driverIDs, func(i, j int) bool { return driverIDs[i] < driverIDs[j] })

	for _, driverID := range driverIDs {
		appts := byDriver[driverID]
		draft, buildErr := g.buildDraft(ctx, date, in, driverID, appts)
		if buildErr != nil {
			log.Printf("draft for driver %d failed: %v", driverID, buildErr)
			for _, a := range appts {
				res.UnassignedAppointments = append(res.UnassignedAppointments, a.ID)
			}
			continue
		}

		if g.cfg.ConflictPolicy == PolicyReject && hasErrorConflict(draft.Conflicts) {
			log.Printf("draft for driver %d rejected: %d conflicts", driverID, len(draft.Conflicts))
			for _, a := range appts {
				res.UnassignedAppointments = append(res.UnassignedAppointments, a.ID)
			}
			continue
		}

		res.Drafts = append(res.Drafts, *draft)
		res.AssignedAppointments += len(appts)
	}

	metrics.DraftRoutesGenerated.Add(float64(len(res.Drafts)))
	return res, nil
}

// Apply persists an approved draft. This is the only write path; generation
// itself never touches the store.
func (g *DraftRouteGenerator) Apply(ctx context.Context, draft *domain.DraftRoute) (err error) {
	defer obs.Time(ctx, "drafts.Apply")(&err)

	if err := g.store.CreateTrip(ctx, &draft.Trip); err != nil {
		return fmt.Errorf("applyDraft: %w", err)
	}

	legs := make([]*domain.TripLeg, len(draft.Legs))
	for i := range draft.Legs {
		legs[i] = &draft.Legs[i]
	}
	if err := g.store.CreateLegs(ctx, legs); err != nil {
		return fmt.Errorf("applyDraft: %w", err)
	}
	return nil
}

type generationInputs struct {
	appointments []*domain.Appointment
	patients     map[int64]*domain.Patient
	staff        map[int64]*domain.Staff
	drivers      []*domain.Staff
	trips        []*domain.DriverTrip
	legs         []*domain.TripLeg
}

func (g *DraftRouteGenerator) collect(ctx context.Context, date string) (*generationInputs, error) {
	appts, err := g.store.ListUnplannedAppointments(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	sort.Slice(appts, func(i, j int) bool { return appts[i].Start.Before(appts[j].Start) })

	patients, err := g.store.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	staff, err := g.store.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	drivers, err := g.store.ListDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	trips, err := g.store.ListTripsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	tripIDs := make([]string, len(trips))
	for i, t := range trips {
		tripIDs[i] = t.ID
	}
	legs, err := g.store.ListLegsByTrips(ctx, tripIDs)
	if err != nil {
		return nil, fmt.Errorf("list legs: %w", err)
	}

	return &generationInputs{
		appointments: appts,
		patients:     patients,
		staff:        staff,
		drivers:      drivers,
		trips:        trips,
		legs:         legs,
	}, nil
}

// buildDraft synthesizes, checks, and optimizes one driver's trip.
func (g *DraftRouteGenerator) buildDraft(
	ctx context.Context,
	date string,
	in *generationInputs,
	driverID int64,
	appts []*domain.Appointment,
) (*domain.DraftRoute, error) {
	sort.Slice(appts, func(i, j int) bool { return appts[i].Start.Before(appts[j].Start) })

	tripID := uuid.NewString()
	trip := domain.DriverTrip{
		ID:       tripID,
		DriverID: driverID,
		TripDate: date,
		Start:    appts[0].Start,
		End:      appts[len(appts)-1].End,
		Status:   domain.TripDraft,
	}

	legs := g.synthesizeLegs(tripID, in, appts)

	conflicts := DetectConflicts(ConflictContext{
		Trip:           &trip,
		Legs:           legs,
		Appointments:   apptsByID(in.appointments),
		Patients:       in.patients,
		Staff:          in.staff,
		OfficeOverride: g.cfg.OfficeOverride,
	})

	coords := map[string]*domain.Coordinates{}
	for _, l := range legs {
		coords[l.ID] = legCoordinates(l, ConflictContext{
			Appointments:   apptsByID(in.appointments),
			Patients:       in.patients,
			Staff:          in.staff,
			OfficeOverride: g.cfg.OfficeOverride,
		})
	}

	// Legs whose times are pinned to an appointment delimit the optimizer's
	// movable runs just like persisted appointment legs do.
	pinned := map[string]bool{}
	for _, l := range legs {
		if l.AppointmentID != nil || l.Type == domain.LegWait {
			pinned[l.ID] = true
		}
	}

	opt := g.optimizer.Optimize(ctx, legs, coords, OptimizeConstraints{
		AppointmentTimesMustNotChange: true,
		LockedLegIDs:                  pinned,
	})

	var driverName string
	if d := in.staff[driverID]; d != nil {
		driverName = d.Name
	}

	return &domain.DraftRoute{
		Trip:                trip,
		Legs:                opt.Legs,
		Conflicts:           conflicts,
		SuggestedDriverName: driverName,
		Confidence:          g.confidence(conflicts, opt.OptimizationScore),
	}, nil
}

// synthesizeLegs lays out one driver's day: pickup, drop at the patient, then
// per gap either a wait leg (folding the next pickup) or a return leg with a
// fresh pickup before the next appointment, and a final return. Pickup and
// return times use a flat travel assumption rather than a live matrix call.
func (g *DraftRouteGenerator) synthesizeLegs(
	tripID string,
	in *generationInputs,
	appts []*domain.Appointment,
) []domain.TripLeg {
	legs := []domain.TripLeg{}
	order := 0
	nextLeg := func() (string, int) {
		order++
		return uuid.NewString(), order
	}

	needPickup := true
	for i, appt := range appts {
		staffID := appt.PrimaryStaffID
		var staff *domain.Staff
		if staffID != nil {
			staff = in.staff[*staffID]
		}
		patient := in.patients[appt.PatientID]

		var prevEnd *time.Time
		if i > 0 {
			prevEnd = &appts[i-1].End
		}
		var nextStart *time.Time
		if i+1 < len(appts) {
			nextStart = &appts[i+1].Start
		}

		suggestion := SuggestPickupDrop(appt, staff, patient, prevEnd, nextStart, g.cfg.OfficeOverride)
		pickupLoc := domain.LocationOffice
		dropLoc := domain.LocationOffice
		if suggestion != nil {
			pickupLoc = suggestion.PickupLocation
			dropLoc = suggestion.DropLocation
		}

		if needPickup {
			id, ord := nextLeg()
			legs = append(legs, domain.TripLeg{
				ID: id, TripID: tripID, Type: domain.LegPickupStaff, Order: ord,
				StaffID:        staffID,
				LocationType:   pickupLoc,
				PlannedArrival: appt.Start.Add(-legTravelMinutes * time.Minute),
			})
		}

		id, ord := nextLeg()
		patientID := appt.PatientID
		legs = append(legs, domain.TripLeg{
			ID: id, TripID: tripID, Type: domain.LegDropStaff, Order: ord,
			StaffID:        staffID,
			AppointmentID:  &appt.ID,
			LocationType:   domain.LocationPatient,
			LocationID:     &patientID,
			PlannedArrival: appt.Start,
		})

		if nextStart == nil {
			// Final return to the drop target.
			id, ord := nextLeg()
			arrival := appt.End.Add(legTravelMinutes * time.Minute)
			ret := dropLoc
			legs = append(legs, domain.TripLeg{
				ID: id, TripID: tripID, Type: domain.LegReturn, Order: ord,
				StaffID:        staffID,
				LocationType:   dropLoc,
				PlannedArrival: arrival,
				ReturnLocation: &ret,
			})
			continue
		}

		decision := SuggestWaitVsLeave(appt.End, nextStart, false)
		if decision == DecisionWait {
			// The driver waits at the patient and chains straight into the
			// next appointment; the next pickup leg is folded away.
			id, ord := nextLeg()
			wait := int(nextStart.Sub(appt.End).Minutes())
			if wait < 0 {
				wait = 0
			}
			dep := nextStart.Add(-legTravelMinutes * time.Minute)
			if dep.Before(appt.End) {
				dep = appt.End
			}
			legs = append(legs, domain.TripLeg{
				ID: id, TripID: tripID, Type: domain.LegWait, Order: ord,
				StaffID:          staffID,
				LocationType:     domain.LocationPatient,
				LocationID:       &patientID,
				PlannedArrival:   appt.End,
				PlannedDeparture: &dep,
				WaitMinutes:      &wait,
			})
			needPickup = false
			continue
		}

		// The staff member leaves; drop them at the heuristic target and
		// start the next appointment with a fresh pickup.
		id, ord = nextLeg()
		arrival := appt.End.Add(legTravelMinutes * time.Minute)
		ret := dropLoc
		legs = append(legs, domain.TripLeg{
			ID: id, TripID: tripID, Type: domain.LegReturn, Order: ord,
			StaffID:        staffID,
			LocationType:   dropLoc,
			PlannedArrival: arrival,
			ReturnLocation: &ret,
		})
		needPickup = true
	}

	return legs
}

func (g *DraftRouteGenerator) confidence(conflicts []domain.RouteConflict, optScore float64) float64 {
	score := 0.95 + 0.05*optScore

	if g.cfg.ConflictPolicy != PolicyWarn {
		for _, c := range conflicts {
			switch c.Severity {
			case domain.SeverityError:
				score -= 0.25
			case domain.SeverityWarning:
				score -= 0.10
			}
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func hasErrorConflict(conflicts []domain.RouteConflict) bool {
	for _, c := range conflicts {
		if c.Severity == domain.SeverityError {
			return true
		}
	}
	return false
}

func apptsByID(appts []*domain.Appointment) map[int64]*domain.Appointment {
	m := make(map[int64]*domain.Appointment, len(appts))
	for _, a := range appts {
		m[a.ID] = a
	}
	return m
}
