package domain

import "time"

// TripStatus is the lifecycle state of a driver trip.
type TripStatus string

const (
	TripDraft     TripStatus = "draft"
	TripConfirmed TripStatus = "confirmed"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// LegType classifies the atomic units of a driver's route.
type LegType string

const (
	LegPickupStaff LegType = "pickup_staff"
	LegDropStaff   LegType = "drop_staff"
	LegAppointment LegType = "appointment"
	LegWait        LegType = "wait"
	LegReturn      LegType = "return"
)

// DriverTrip is one driver's route for one calendar date.
// Trips are created as drafts and persisted only on explicit operator approval.
type DriverTrip struct {
	ID       string
	DriverID int64
	TripDate string // "2006-01-02"
	Start    time.Time
	End      time.Time
	Status   TripStatus
}

// TripLeg is the atomic unit of a route. Legs within one trip are totally
// ordered by Order starting at 1 with no gaps, and PlannedArrival is
// non-decreasing across increasing Order. A locked leg must never be
// reordered; an appointment leg's planned times mirror the appointment's
// own start/end and are immutable once assigned.
type TripLeg struct {
	ID               string
	TripID           string
	Type             LegType
	Order            int
	StaffID          *int64
	AppointmentID    *int64
	LocationType     LocationType
	LocationID       *int64
	PlannedArrival   time.Time
	PlannedDeparture *time.Time
	Locked           bool
	WaitMinutes      *int
	ReturnLocation   *LocationType
}

// DraftRoute is an unconfirmed proposed trip awaiting operator review.
// It exists only in memory between generation and apply/discard and is
// never independently persisted.
type DraftRoute struct {
	Trip                DriverTrip
	Legs                []TripLeg
	Conflicts           []RouteConflict
	SuggestedDriverName string
	Confidence          float64 // in [0,1]
}
