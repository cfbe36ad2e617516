package dto

import "time"

type GenerateDraftsRequest struct {
	Date string `json:"date"` // "2006-01-02"
}

type TripPayload struct {
	ID       string    `json:"id"`
	DriverID int64     `json:"driver_id"`
	TripDate string    `json:"trip_date"`
	Start    time.Time `json:"start_time"`
	End      time.Time `json:"end_time"`
	Status   string    `json:"status"`
}

type TripLegPayload struct {
	ID               string     `json:"id"`
	TripID           string     `json:"trip_id"`
	Type             string     `json:"leg_type"`
	Order            int        `json:"leg_order"`
	StaffID          *int64     `json:"staff_id,omitempty"`
	AppointmentID    *int64     `json:"appointment_id,omitempty"`
	LocationType     string     `json:"location_type"`
	LocationID       *int64     `json:"location_id,omitempty"`
	PlannedArrival   time.Time  `json:"planned_arrival"`
	PlannedDeparture *time.Time `json:"planned_departure,omitempty"`
	Locked           bool       `json:"locked,omitempty"`
	WaitMinutes      *int       `json:"wait_minutes,omitempty"`
	ReturnLocation   *string    `json:"return_location,omitempty"`
}

type ConflictResponse struct {
	LegID         string `json:"leg_id"`
	AppointmentID *int64 `json:"appointment_id,omitempty"`
	Category      string `json:"category"`
	Severity      string `json:"severity"`
	Detail        string `json:"detail"`
}

type DraftRoutePayload struct {
	Trip                TripPayload        `json:"trip"`
	Legs                []TripLegPayload   `json:"legs"`
	Conflicts           []ConflictResponse `json:"conflicts"`
	SuggestedDriverName string             `json:"suggested_driver_name"`
	Confidence          float64            `json:"confidence_score"`
}

type GenerateDraftsResponse struct {
	Drafts                 []DraftRoutePayload `json:"drafts"`
	TotalAppointments      int                 `json:"total_appointments"`
	AssignedAppointments   int                 `json:"assigned_appointments"`
	UnassignedAppointments []int64             `json:"unassigned_appointments"`
	SplitDriverSuggestions int                 `json:"split_driver_suggestions"`
}

// ApplyDraftRequest carries a previously generated draft back for
// persistence. Drafts live only in the operator's session between the two
// calls; the service itself holds no draft state.
type ApplyDraftRequest struct {
	Trip TripPayload      `json:"trip"`
	Legs []TripLegPayload `json:"legs"`
}

type ApplyDraftResponse struct {
	TripID string `json:"trip_id"`
	Status string `json:"status"`
}
