// Package distance is the routing gateway: it issues distance/duration
// queries to the external matrix provider with bounded call rates, retries
// transient provider statuses, and latches a circuit breaker on the first
// network-level failure.
package distance

import (
	"context"
	"net/http"
	"time"

	"fieldcare-dispatch-service/internal/metrics"
	"fieldcare-dispatch-service/internal/ports"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
	retryBaseDelay = 500 * time.Millisecond
)

// Config holds gateway tuning. An empty APIKey is not fatal: every call
// returns ErrMissingAPIKey and the engine runs on the local estimator.
type Config struct {
	APIKey         string
	BaseURL        string
	CallsPerSecond int
	CallsPerDay    int
}

// Gateway implements ports.MatrixProvider against a distance-matrix HTTP API.
// It is safe for concurrent use; the breaker and the rate limiter are the
// only pieces of shared state.
type Gateway struct {
	session *http.Client
	cfg     Config
	limiter *RateLimiter
	breaker *Breaker
}

func NewGateway(cfg Config, breaker *Breaker) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	}
	if cfg.CallsPerSecond == 0 {
		cfg.CallsPerSecond = 10
	}
	if cfg.CallsPerDay == 0 {
		cfg.CallsPerDay = 25000
	}
	if breaker == nil {
		breaker = NewBreaker()
	}

	return &Gateway{
		session: &http.Client{Timeout: requestTimeout},
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.CallsPerSecond, cfg.CallsPerDay),
		breaker: breaker,
	}
}

// Breaker exposes the gateway's circuit breaker so callers can inspect or
// reset availability.
func (g *Gateway) Breaker() *Breaker { return g.breaker }

// Matrix fetches a result grid of shape origins x destinations in a single
// provider call.
//
// Failure modes, in order of evaluation: latched breaker and missing API key
// fail fast without network I/O; the rate limiter suspends the caller until
// a slot frees up; network errors and timeouts trip the breaker and surface
// as ErrProviderUnavailable; retryable provider statuses are retried up to
// maxRetries with exponential backoff; any other non-OK status is returned
// as a *ProviderStatusError.
func (g *Gateway) Matrix(
	ctx context.Context,
	origins, destinations []ports.Waypoint,
	opts ports.MatrixOptions,
) (*ports.MatrixResult, error) {
	if len(origins) == 0 || len(destinations) == 0 {
		return &ports.MatrixResult{Rows: [][]ports.DistanceResult{}}, nil
	}

	if !g.breaker.Available() {
		metrics.ProviderCalls.WithLabelValues("unavailable").Inc()
		return nil, ErrProviderUnavailable
	}
	if g.cfg.APIKey == "" {
		metrics.ProviderCalls.WithLabelValues("no_key").Inc()
		return nil, ErrMissingAPIKey
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	started := time.Now()
	defer func() {
		metrics.ProviderLatency.Observe(float64(time.Since(started).Milliseconds()))
	}()

	// Bounded retry loop instead of retry-via-recursion: keeps stack depth
	// flat and cancellation checks explicit.
	var lastStatus string
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := g.fetchMatrix(ctx, origins, destinations, opts)
		if err != nil {
			// Network-level failure or timeout: latch and degrade.
			g.breaker.Trip(err.Error())
			metrics.ProviderCalls.WithLabelValues("unavailable").Inc()
			return nil, ErrProviderUnavailable
		}

		if resp.Status == "OK" {
			metrics.ProviderCalls.WithLabelValues("ok").Inc()
			return resp.toResult(len(origins), len(destinations))
		}

		lastStatus = resp.Status
		if !retryableStatus(resp.Status) || attempt == maxRetries {
			break
		}

		metrics.ProviderRetries.WithLabelValues(resp.Status).Inc()
		backoff := retryBaseDelay * (1 << attempt)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	metrics.ProviderCalls.WithLabelValues("status_error").Inc()
	return nil, &ProviderStatusError{Status: lastStatus}
}
