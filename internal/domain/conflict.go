package domain

// ConflictSeverity grades how badly a detected problem compromises a route.
type ConflictSeverity string

const (
	SeverityWarning ConflictSeverity = "warning"
	SeverityError   ConflictSeverity = "error"
)

// ConflictCategory names the class of problem found in a candidate route.
type ConflictCategory string

const (
	ConflictDropBeforePickup     ConflictCategory = "drop_before_pickup"
	ConflictMissingPickup        ConflictCategory = "missing_pickup"
	ConflictInfeasibleTransition ConflictCategory = "infeasible_transition"
	ConflictTimeOverlap          ConflictCategory = "time_overlap"
)

// RouteConflict identifies a problem tied to a leg and/or appointment.
// Conflicts are surfaced for operator review; an empty conflict list is the
// normal outcome, not a failure signal.
type RouteConflict struct {
	LegID         string
	AppointmentID *int64
	Category      ConflictCategory
	Severity      ConflictSeverity
	Detail        string
}
