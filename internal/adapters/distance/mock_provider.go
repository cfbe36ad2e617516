package distance

import (
	"context"
	"fmt"

	"fieldcare-dispatch-service/internal/ports"
)

type MockPair struct {
	From, To string
	Meters   int
	Seconds  int
}

// MockMatrixProvider serves canned pair results for tests. Pairs are keyed
// by Waypoint keys; missing pairs error so tests notice incomplete fixtures.
type MockMatrixProvider struct {
	m     map[string]ports.DistanceResult
	Calls int
	Err   error
}

func NewMockMatrixProvider(pairs []MockPair) *MockMatrixProvider {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = ports.DistanceResult{
			DistanceMeters:  p.Meters,
			DurationSeconds: p.Seconds,
			Status:          ports.StatusOK,
		}
	}
	return &MockMatrixProvider{m: m}
}

func (p *MockMatrixProvider) Matrix(
	ctx context.Context,
	origins, destinations []ports.Waypoint,
	opts ports.MatrixOptions,
) (*ports.MatrixResult, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}

	out := &ports.MatrixResult{Rows: make([][]ports.DistanceResult, len(origins))}
	for i, o := range origins {
		cells := make([]ports.DistanceResult, len(destinations))
		for j, d := range destinations {
			if o.Key() == d.Key() {
				cells[j] = ports.DistanceResult{Status: ports.StatusOK}
				continue
			}
			r, ok := p.m[o.Key()+"|"+d.Key()]
			if !ok {
				return nil, fmt.Errorf("missing pair %q -> %q", o.Key(), d.Key())
			}
			cells[j] = r
		}
		out.Rows[i] = cells
	}

	return out, nil
}
