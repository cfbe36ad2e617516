package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fieldcare-dispatch-service/internal/domain"
)

// MemoryRecordStore is an in-memory RecordStore used by tests and local
// experimentation. Safe for concurrent use.
type MemoryRecordStore struct {
	mu           sync.Mutex
	patients     map[int64]*domain.Patient
	staff        map[int64]*domain.Staff
	appointments map[int64]*domain.Appointment
	trips        map[string]*domain.DriverTrip
	legs         map[string][]*domain.TripLeg // trip id -> legs
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		patients:     map[int64]*domain.Patient{},
		staff:        map[int64]*domain.Staff{},
		appointments: map[int64]*domain.Appointment{},
		trips:        map[string]*domain.DriverTrip{},
		legs:         map[string][]*domain.TripLeg{},
	}
}

func (m *MemoryRecordStore) AddPatient(p *domain.Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
}

func (m *MemoryRecordStore) AddStaff(s *domain.Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[s.ID] = s
}

func (m *MemoryRecordStore) AddAppointment(a *domain.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[a.ID] = a
}

func (m *MemoryRecordStore) ListUnplannedAppointments(ctx context.Context, date string) ([]*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	planned := map[int64]struct{}{}
	for _, legs := range m.legs {
		for _, l := range legs {
			if l.AppointmentID != nil {
				planned[*l.AppointmentID] = struct{}{}
			}
		}
	}

	out := make([]*domain.Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		if a.Start.Format("2006-01-02") != date {
			continue
		}
		if _, ok := planned[a.ID]; ok {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})

	return out, nil
}

func (m *MemoryRecordStore) ListPatients(ctx context.Context) (map[int64]*domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int64]*domain.Patient, len(m.patients))
	for id, p := range m.patients {
		out[id] = p
	}
	return out, nil
}

func (m *MemoryRecordStore) ListStaff(ctx context.Context) (map[int64]*domain.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int64]*domain.Staff, len(m.staff))
	for id, s := range m.staff {
		out[id] = s
	}
	return out, nil
}

func (m *MemoryRecordStore) ListDrivers(ctx context.Context) ([]*domain.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Staff, 0, len(m.staff))
	for _, s := range m.staff {
		if s.IsDriver {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRecordStore) ListTripsByDate(ctx context.Context, date string) ([]*domain.DriverTrip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.DriverTrip, 0, len(m.trips))
	for _, t := range m.trips {
		if t.TripDate == date {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *MemoryRecordStore) ListLegsByTrips(ctx context.Context, tripIDs []string) ([]*domain.TripLeg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.TripLeg, 0, 32)
	for _, id := range tripIDs {
		out = append(out, m.legs[id]...)
	}
	return out, nil
}

func (m *MemoryRecordStore) CreateTrip(ctx context.Context, trip *domain.DriverTrip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if trip == nil || trip.ID == "" {
		return fmt.Errorf("create trip: trip with id is required")
	}
	if _, exists := m.trips[trip.ID]; exists {
		return fmt.Errorf("create trip id=%s: already exists", trip.ID)
	}

	cp := *trip
	m.trips[trip.ID] = &cp
	return nil
}

func (m *MemoryRecordStore) CreateLegs(ctx context.Context, legs []*domain.TripLeg) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range legs {
		cp := *l
		m.legs[l.TripID] = append(m.legs[l.TripID], &cp)
	}
	return nil
}

func (m *MemoryRecordStore) UpdateTripStatus(ctx context.Context, tripID string, status domain.TripStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trips[tripID]
	if !ok {
		return fmt.Errorf("update trip status id=%s: trip not found", tripID)
	}
	t.Status = status
	return nil
}
