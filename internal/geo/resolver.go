// Package geo resolves domain records to routable locations and provides the
// local great-circle travel estimator used when the routing provider is
// unavailable.
package geo

import (
	"net/url"
	"strconv"
	"strings"

	"fieldcare-dispatch-service/internal/domain"
)

// Built-in reference coordinates used when the caller supplies no override.
var (
	defaultOffice = domain.Coordinates{Lat: 25.276987, Lng: 55.296249}
	defaultMetro  = domain.Coordinates{Lat: 25.258172, Lng: 55.304717}
)

// ResolvePatient extracts routable coordinates for a patient.
// Resolution order: explicit stored lat/lng, then map-link extraction.
// Returns nil when neither yields a valid pair; callers treat nil as
// "patient unusable for routing", not as an error.
func ResolvePatient(p *domain.Patient) *domain.Location {
	if p == nil {
		return nil
	}

	if p.Lat != nil && p.Lng != nil {
		c := domain.Coordinates{Lat: *p.Lat, Lng: *p.Lng}
		if c.Valid() {
			return &domain.Location{
				Type:    domain.LocationPatient,
				Coords:  &c,
				Address: p.Address,
				Name:    p.Name,
				ID:      p.ID,
			}
		}
	}

	if c := ParseMapLink(p.MapLink); c != nil {
		return &domain.Location{
			Type:    domain.LocationPatient,
			Coords:  c,
			Address: p.Address,
			Name:    p.Name,
			ID:      p.ID,
		}
	}

	return nil
}

// ParseMapLink extracts coordinates from a stored map URL.
// Two link shapes are recognized: "?q=lat,lng" and "@lat,lng".
// Malformed links resolve to nil rather than an error.
func ParseMapLink(link string) *domain.Coordinates {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}

	if u, err := url.Parse(link); err == nil {
		if q := u.Query().Get("q"); q != "" {
			if c := parsePair(q); c != nil {
				return c
			}
		}
	}

	if i := strings.Index(link, "@"); i >= 0 {
		rest := link[i+1:]
		if j := strings.IndexAny(rest, "/?&"); j >= 0 {
			rest = rest[:j]
		}
		// "@lat,lng,15z" style links carry a zoom as the third field.
		parts := strings.Split(rest, ",")
		if len(parts) >= 2 {
			if c := parsePair(parts[0] + "," + parts[1]); c != nil {
				return c
			}
		}
	}

	return nil
}

func parsePair(s string) *domain.Coordinates {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}

	c := domain.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil
	}
	return &c
}

// OfficeLocation returns the dispatch office. An override from caller
// configuration takes precedence over the built-in default.
func OfficeLocation(override *domain.Coordinates) *domain.Location {
	c := defaultOffice
	if override != nil && override.Valid() {
		c = *override
	}
	return &domain.Location{Type: domain.LocationOffice, Coords: &c, Name: "Office"}
}

// MetroLocation returns the metro station reference point used as a neutral
// drop target when staff leave between appointments.
func MetroLocation(name string, override *domain.Coordinates) *domain.Location {
	c := defaultMetro
	if override != nil && override.Valid() {
		c = *override
	}
	if name == "" {
		name = "Metro Station"
	}
	return &domain.Location{Type: domain.LocationMetro, Coords: &c, Name: name}
}

// StaffHomeLocation resolves a staff member's stored home coordinates.
// Returns nil when no home is on record; callers treat nil as "feature
// unavailable" and fall back to office/metro targets.
func StaffHomeLocation(s *domain.Staff) *domain.Location {
	if s == nil || s.HomeLat == nil || s.HomeLng == nil {
		return nil
	}

	c := domain.Coordinates{Lat: *s.HomeLat, Lng: *s.HomeLng}
	if !c.Valid() {
		return nil
	}
	return &domain.Location{Type: domain.LocationHome, Coords: &c, Name: s.Name, ID: s.ID}
}
