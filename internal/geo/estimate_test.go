package geo

import (
	"testing"

	"fieldcare-dispatch-service/internal/domain"
)

func TestHaversineSymmetryAndIdentity(t *testing.T) {
	a := domain.Coordinates{Lat: 25.2048, Lng: 55.2708}
	b := domain.Coordinates{Lat: 25.1972, Lng: 55.2744}

	if d := domain.HaversineKm(a, a); d != 0 {
		t.Fatalf("haversine(a,a) = %f, want 0", d)
	}

	ab := domain.HaversineKm(a, b)
	ba := domain.HaversineKm(b, a)
	if ab != ba {
		t.Fatalf("haversine not symmetric: %f vs %f", ab, ba)
	}
	if ab <= 0 {
		t.Fatalf("haversine(a,b) = %f, want > 0", ab)
	}
}

func TestEstimateMinutesFloorAndMonotonicity(t *testing.T) {
	if m := EstimateMinutes(0); m != 10 {
		t.Fatalf("EstimateMinutes(0) = %d, want 10", m)
	}
	// The floor only binds for the degenerate negative-distance case.
	if m := EstimateMinutes(-100); m != 5 {
		t.Fatalf("floor = %d, want 5", m)
	}

	prev := 0
	for km := 0.0; km <= 50; km += 0.5 {
		m := EstimateMinutes(km)
		if m < 5 {
			t.Fatalf("EstimateMinutes(%f) = %d, below the 5 minute floor", km, m)
		}
		if m < prev {
			t.Fatalf("estimate decreased at %f km: %d < %d", km, m, prev)
		}
		prev = m
	}
}

func TestEstimateTravelMinutesKnownDistance(t *testing.T) {
	a := domain.Coordinates{Lat: 25.0, Lng: 55.0}
	// ~10 km north of a.
	b := domain.Coordinates{Lat: 25.09, Lng: 55.0}

	m := EstimateTravelMinutes(a, b)
	if m < 28 || m > 32 {
		t.Fatalf("EstimateTravelMinutes ~10km = %d, want about 30", m)
	}
}
