package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fieldcare-dispatch-service/internal/ports"
)

type matrixResponse struct {
	Status string      `json:"status"`
	Rows   []matrixRow `json:"rows"`
}

type matrixRow struct {
	Elements []matrixElement `json:"elements"`
}

type matrixElement struct {
	Status            string       `json:"status"`
	Distance          *metricValue `json:"distance"`
	Duration          *metricValue `json:"duration"`
	DurationInTraffic *metricValue `json:"duration_in_traffic"`
}

type metricValue struct {
	Value int `json:"value"`
}

// fetchMatrix performs one provider round trip. Any transport error
// (including the 5s timeout) is returned as-is for the gateway to classify.
func (g *Gateway) fetchMatrix(
	ctx context.Context,
	origins, destinations []ports.Waypoint,
	opts ports.MatrixOptions,
) (*matrixResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create matrix request: %w", err)
	}

	q := req.URL.Query()
	q.Set("origins", joinWaypoints(origins))
	q.Set("destinations", joinWaypoints(destinations))
	q.Set("key", g.cfg.APIKey)

	mode := opts.Mode
	if mode == "" {
		mode = "driving"
	}
	q.Set("mode", mode)
	if opts.Avoid != "" {
		q.Set("avoid", opts.Avoid)
	}
	if opts.Units != "" {
		q.Set("units", opts.Units)
	}
	if opts.DepartureTime != nil {
		q.Set("departure_time", strconv.FormatInt(opts.DepartureTime.Unix(), 10))
		if opts.TrafficModel != "" {
			q.Set("traffic_model", opts.TrafficModel)
		}
	}
	req.URL.RawQuery = q.Encode()

	resp, err := g.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	return &decoded, nil
}

func joinWaypoints(wps []ports.Waypoint) string {
	keys := make([]string, 0, len(wps))
	for _, w := range wps {
		keys = append(keys, w.Key())
	}
	return strings.Join(keys, "|")
}

// toResult validates the grid shape and converts provider elements to
// DistanceResults. Non-OK element statuses are carried through; the caller
// treats them as recoverable misses.
func (r *matrixResponse) toResult(nOrigins, nDestinations int) (*ports.MatrixResult, error) {
	if len(r.Rows) != nOrigins {
		return nil, fmt.Errorf("matrix shape mismatch: got %d rows, want %d", len(r.Rows), nOrigins)
	}

	out := &ports.MatrixResult{Rows: make([][]ports.DistanceResult, nOrigins)}
	for i, row := range r.Rows {
		if len(row.Elements) != nDestinations {
			return nil, fmt.Errorf(
				"matrix shape mismatch: row %d has %d elements, want %d",
				i, len(row.Elements), nDestinations,
			)
		}

		cells := make([]ports.DistanceResult, nDestinations)
		for j, el := range row.Elements {
			cell := ports.DistanceResult{Status: el.Status}
			if el.Status == ports.StatusOK {
				if el.Distance != nil {
					cell.DistanceMeters = el.Distance.Value
				}
				if el.Duration != nil {
					cell.DurationSeconds = el.Duration.Value
				}
				if el.DurationInTraffic != nil {
					cell.TrafficDurationSeconds = el.DurationInTraffic.Value
					cell.HasTraffic = true
				}
			}
			cells[j] = cell
		}
		out.Rows[i] = cells
	}

	return out, nil
}
