package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fieldcare-dispatch-service/internal/domain"
)

// SQLite-backed implementation of the RecordStore port.
type SqliteRecordStore struct{ DB *sql.DB }

func NewSqliteRecordStore(db *sql.DB) *SqliteRecordStore {
	return &SqliteRecordStore{DB: db}
}

// ListUnplannedAppointments returns appointments starting on the given date
// that no trip leg references yet, ordered by start time.
func (s *SqliteRecordStore) ListUnplannedAppointments(ctx context.Context, date string) ([]*domain.Appointment, error) {
	if s.DB == nil {
		return nil, errors.New("record store: DB is nil")
	}

	query := `
	SELECT id, patient_id, primary_staff_id, start_time, end_time
	FROM appointments
	WHERE substr(start_time, 1, 10) = ?
		AND id NOT IN (
			SELECT appointment_id FROM trip_legs WHERE appointment_id IS NOT NULL
		)
	ORDER BY start_time, id;
	`
	rows, err := s.DB.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("list unplanned appointments: query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Appointment, 0, 32)
	for rows.Next() {
		var a domain.Appointment
		var startRaw, endRaw string
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PrimaryStaffID, &startRaw, &endRaw); err != nil {
			return nil, fmt.Errorf("list unplanned appointments: scan row: %w", err)
		}
		if a.Start, err = time.Parse(time.RFC3339, startRaw); err != nil {
			return nil, fmt.Errorf("list unplanned appointments: parse start_time %q: %w", startRaw, err)
		}
		if a.End, err = time.Parse(time.RFC3339, endRaw); err != nil {
			return nil, fmt.Errorf("list unplanned appointments: parse end_time %q: %w", endRaw, err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unplanned appointments: row iteration: %w", err)
	}

	return out, nil
}

func (s *SqliteRecordStore) ListPatients(ctx context.Context) (map[int64]*domain.Patient, error) {
	if s.DB == nil {
		return nil, errors.New("record store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, address, lat, lng, map_link FROM patients`)
	if err != nil {
		return nil, fmt.Errorf("list patients: query: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*domain.Patient, 64)
	for rows.Next() {
		var p domain.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Lat, &p.Lng, &p.MapLink); err != nil {
			return nil, fmt.Errorf("list patients: scan row: %w", err)
		}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list patients: row iteration: %w", err)
	}

	return out, nil
}

func (s *SqliteRecordStore) ListStaff(ctx context.Context) (map[int64]*domain.Staff, error) {
	if s.DB == nil {
		return nil, errors.New("record store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, is_driver, home_lat, home_lng FROM staff`)
	if err != nil {
		return nil, fmt.Errorf("list staff: query: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*domain.Staff, 32)
	for rows.Next() {
		var st domain.Staff
		if err := rows.Scan(&st.ID, &st.Name, &st.IsDriver, &st.HomeLat, &st.HomeLng); err != nil {
			return nil, fmt.Errorf("list staff: scan row: %w", err)
		}
		out[st.ID] = &st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list staff: row iteration: %w", err)
	}

	return out, nil
}

func (s *SqliteRecordStore) ListDrivers(ctx context.Context) ([]*domain.Staff, error) {
	if s.DB == nil {
		return nil, errors.New("record store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, is_driver, home_lat, home_lng FROM staff WHERE is_driver = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list drivers: query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Staff, 0, 16)
	for rows.Next() {
		var st domain.Staff
		if err := rows.Scan(&st.ID, &st.Name, &st.IsDriver, &st.HomeLat, &st.HomeLng); err != nil {
			return nil, fmt.Errorf("list drivers: scan row: %w", err)
		}
		out = append(out, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drivers: row iteration: %w", err)
	}

	return out, nil
}

func (s *SqliteRecordStore) ListTripsByDate(ctx context.Context, date string) ([]*domain.DriverTrip, error) {
	if s.DB == nil {
		return nil, errors.New("record store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, driver_id, trip_date, start_time, end_time, status FROM driver_trips WHERE trip_date = ? ORDER BY start_time`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("list trips: query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.DriverTrip, 0, 16)
	for rows.Next() {
		var t domain.DriverTrip
		var startRaw, endRaw, status string
		if err := rows.Scan(&t.ID, &t.DriverID, &t.TripDate, &startRaw, &endRaw, &status); err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		if t.Start, err = time.Parse(time.RFC3339, startRaw); err != nil {
			return nil, fmt.Errorf("list trips: parse start_time %q: %w", startRaw, err)
		}
		if t.End, err = time.Parse(time.RFC3339, endRaw); err != nil {
			return nil, fmt.Errorf("list trips: parse end_time %q: %w", endRaw, err)
		}
		t.Status = domain.TripStatus(status)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return out, nil
}

func (s *SqliteRecordStore) ListLegsByTrips(ctx context.Context, tripIDs []string) ([]*domain.TripLeg, error) {
	if s.DB == nil {
		return nil, errors.New("record store: DB is nil")
	}

	if len(tripIDs) == 0 {
		return []*domain.TripLeg{}, nil
	}

	ph := make([]string, 0, len(tripIDs))
	args := make([]any, 0, len(tripIDs))
	for _, id := range tripIDs {
		ph = append(ph, "?")
		args = append(args, id)
	}

	// Placeholder structure only; values stay parameterized.
	query := fmt.Sprintf(`
	SELECT id, trip_id, leg_type, leg_order, staff_id, appointment_id, location_type,
		location_id, planned_arrival, planned_departure, is_locked, wait_minutes, return_location_type
	FROM trip_legs
	WHERE trip_id IN (%s)
	ORDER BY trip_id, leg_order;
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list legs: query: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.TripLeg, 0, 64)
	for rows.Next() {
		var l domain.TripLeg
		var legType, locType, arrivalRaw string
		var departureRaw, returnLoc *string
		if err := rows.Scan(
			&l.ID, &l.TripID, &legType, &l.Order, &l.StaffID, &l.AppointmentID,
			&locType, &l.LocationID, &arrivalRaw, &departureRaw, &l.Locked,
			&l.WaitMinutes, &returnLoc,
		); err != nil {
			return nil, fmt.Errorf("list legs: scan row: %w", err)
		}

		l.Type = domain.LegType(legType)
		l.LocationType = domain.LocationType(locType)
		if l.PlannedArrival, err = time.Parse(time.RFC3339, arrivalRaw); err != nil {
			return nil, fmt.Errorf("list legs: parse planned_arrival %q: %w", arrivalRaw, err)
		}
		if departureRaw != nil {
			dep, err := time.Parse(time.RFC3339, *departureRaw)
			if err != nil {
				return nil, fmt.Errorf("list legs: parse planned_departure %q: %w", *departureRaw, err)
			}
			l.PlannedDeparture = &dep
		}
		if returnLoc != nil {
			rl := domain.LocationType(*returnLoc)
			l.ReturnLocation = &rl
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list legs: row iteration: %w", err)
	}

	return out, nil
}

// CreateTrip persists an operator-approved trip. Only the apply flow calls
// this; draft generation never writes.
func (s *SqliteRecordStore) CreateTrip(ctx context.Context, trip *domain.DriverTrip) error {
	if s.DB == nil {
		return errors.New("record store: DB is nil")
	}
	if trip == nil || trip.ID == "" {
		return errors.New("create trip: trip with id is required")
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO driver_trips (id, driver_id, trip_date, start_time, end_time, status) VALUES (?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.DriverID, trip.TripDate,
		trip.Start.Format(time.RFC3339), trip.End.Format(time.RFC3339), string(trip.Status),
	)
	if err != nil {
		return fmt.Errorf("create trip id=%s: %w", trip.ID, err)
	}
	return nil
}

func (s *SqliteRecordStore) CreateLegs(ctx context.Context, legs []*domain.TripLeg) error {
	if s.DB == nil {
		return errors.New("record store: DB is nil")
	}
	if len(legs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create legs: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO trip_legs (
		id, trip_id, leg_type, leg_order, staff_id, appointment_id, location_type,
		location_id, planned_arrival, planned_departure, is_locked, wait_minutes, return_location_type
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("create legs: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range legs {
		var departure *string
		if l.PlannedDeparture != nil {
			v := l.PlannedDeparture.Format(time.RFC3339)
			departure = &v
		}
		var returnLoc *string
		if l.ReturnLocation != nil {
			v := string(*l.ReturnLocation)
			returnLoc = &v
		}

		if _, err := stmt.ExecContext(ctx,
			l.ID, l.TripID, string(l.Type), l.Order, l.StaffID, l.AppointmentID,
			string(l.LocationType), l.LocationID, l.PlannedArrival.Format(time.RFC3339),
			departure, l.Locked, l.WaitMinutes, returnLoc,
		); err != nil {
			return fmt.Errorf("create legs: insert leg id=%s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create legs: commit tx: %w", err)
	}

	return nil
}

func (s *SqliteRecordStore) UpdateTripStatus(ctx context.Context, tripID string, status domain.TripStatus) error {
	if s.DB == nil {
		return errors.New("record store: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE driver_trips SET status = ? WHERE id = ?`, string(status), tripID)
	if err != nil {
		return fmt.Errorf("update trip status id=%s: %w", tripID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update trip status id=%s: rows affected: %w", tripID, err)
	}
	if n == 0 {
		return fmt.Errorf("update trip status id=%s: trip not found", tripID)
	}

	return nil
}
