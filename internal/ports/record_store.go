package ports

import (
	"context"

	"fieldcare-dispatch-service/internal/domain"
)

// RecordStore is the boundary to the persistence collaborator.
//
// The draft route generator only reads: it lists records during generation
// and never writes. Create/Update are invoked solely by the apply flow when
// an operator explicitly approves a draft.
type RecordStore interface {
	// ListUnplannedAppointments returns appointments on the given date
	// ("2006-01-02") that are not yet attached to any trip leg.
	ListUnplannedAppointments(ctx context.Context, date string) ([]*domain.Appointment, error)
	ListPatients(ctx context.Context) (map[int64]*domain.Patient, error)
	ListStaff(ctx context.Context) (map[int64]*domain.Staff, error)
	ListDrivers(ctx context.Context) ([]*domain.Staff, error)
	ListTripsByDate(ctx context.Context, date string) ([]*domain.DriverTrip, error)
	ListLegsByTrips(ctx context.Context, tripIDs []string) ([]*domain.TripLeg, error)

	CreateTrip(ctx context.Context, trip *domain.DriverTrip) error
	CreateLegs(ctx context.Context, legs []*domain.TripLeg) error
	UpdateTripStatus(ctx context.Context, tripID string, status domain.TripStatus) error
}
