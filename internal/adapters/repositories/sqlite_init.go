package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createPatientsQuery := `
	CREATE TABLE IF NOT EXISTS patients (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		lat REAL,
		lng REAL,
		map_link TEXT NOT NULL DEFAULT ''
	);
	`

	createStaffQuery := `
	CREATE TABLE IF NOT EXISTS staff (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		is_driver INTEGER NOT NULL DEFAULT 0,
		home_lat REAL,
		home_lng REAL
	);
	`

	createAppointmentsQuery := `
	CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY,
		patient_id INTEGER NOT NULL REFERENCES patients(id),
		primary_staff_id INTEGER REFERENCES staff(id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL
	);
	`

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS driver_trips (
		id TEXT PRIMARY KEY,
		driver_id INTEGER NOT NULL REFERENCES staff(id),
		trip_date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		status TEXT NOT NULL
	);
	`

	createLegsQuery := `
	CREATE TABLE IF NOT EXISTS trip_legs (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES driver_trips(id),
		leg_type TEXT NOT NULL,
		leg_order INTEGER NOT NULL,
		staff_id INTEGER,
		appointment_id INTEGER,
		location_type TEXT NOT NULL,
		location_id INTEGER,
		planned_arrival TEXT NOT NULL,
		planned_departure TEXT,
		is_locked INTEGER NOT NULL DEFAULT 0,
		wait_minutes INTEGER,
		return_location_type TEXT
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        traffic_seconds INTEGER NOT NULL DEFAULT 0,
        has_traffic INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (origin, destination)
    );
	`

	createIndexQueries := `
	CREATE INDEX IF NOT EXISTS idx_appointments_start_time ON appointments(start_time);
	CREATE INDEX IF NOT EXISTS idx_driver_trips_trip_date ON driver_trips(trip_date);
	CREATE INDEX IF NOT EXISTS idx_trip_legs_trip_id ON trip_legs(trip_id, leg_order);
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin ON distance_cache(destination, origin);
	`

	statements := []string{
		createPatientsQuery,
		createStaffQuery,
		createAppointmentsQuery,
		createTripsQuery,
		createLegsQuery,
		createDistanceCacheQuery,
		createIndexQueries,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type PatientSeed struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	MapLink string   `json:"map_link"`
}

type StaffSeed struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	IsDriver bool     `json:"is_driver"`
	HomeLat  *float64 `json:"home_lat"`
	HomeLng  *float64 `json:"home_lng"`
}

type AppointmentSeed struct {
	ID             int64     `json:"id"`
	PatientID      int64     `json:"patient_id"`
	PrimaryStaffID *int64    `json:"primary_staff_id"`
	Start          time.Time `json:"start_time"`
	End            time.Time `json:"end_time"`
}

type Seed struct {
	Patients     []PatientSeed     `json:"patients"`
	Staff        []StaffSeed       `json:"staff"`
	Appointments []AppointmentSeed `json:"appointments"`
}

// Populate the database with demo data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed data: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed data: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed data: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, p := range data.Patients {
		if p.ID <= 0 || strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("seed data: invalid patient at index %d", i+1)
		}
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO patients (id, name, address, lat, lng, map_link) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Address, p.Lat, p.Lng, p.MapLink,
		)
		if err != nil {
			return fmt.Errorf("seed data: insert patient id=%d: %w", p.ID, err)
		}
	}

	for i, s := range data.Staff {
		if s.ID <= 0 || strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("seed data: invalid staff at index %d", i+1)
		}
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO staff (id, name, is_driver, home_lat, home_lng) VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.IsDriver, s.HomeLat, s.HomeLng,
		)
		if err != nil {
			return fmt.Errorf("seed data: insert staff id=%d: %w", s.ID, err)
		}
	}

	for i, a := range data.Appointments {
		if a.ID <= 0 || a.PatientID <= 0 || !a.End.After(a.Start) {
			return fmt.Errorf("seed data: invalid appointment at index %d", i+1)
		}
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO appointments (id, patient_id, primary_staff_id, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.PatientID, a.PrimaryStaffID, a.Start.Format(time.RFC3339), a.End.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("seed data: insert appointment id=%d: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed data: commit tx: %w", err)
	}

	return nil
}
