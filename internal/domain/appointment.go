package domain

import "time"

// Appointment is a scheduled patient visit. Start and End are instants, not
// durations. Appointments are immutable inputs to the planning engine: the
// engine never changes appointment timing.
type Appointment struct {
	ID             int64
	PatientID      int64
	PrimaryStaffID *int64
	Start          time.Time
	End            time.Time
}

// Patient holds the routing-relevant subset of a patient record.
// Lat/Lng are explicit stored coordinates; MapLink is a fallback source
// from which coordinates may be extracted.
type Patient struct {
	ID      int64
	Name    string
	Address string
	Lat     *float64
	Lng     *float64
	MapLink string
}
