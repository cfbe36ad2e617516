package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// ProviderCalls counts routing-provider calls by outcome (ok, status_error, unavailable).
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routing_provider_calls_total", Help: "Routing provider calls by outcome."},
		[]string{"outcome"},
	)
	// ProviderRetries counts retried provider calls by provider status.
	ProviderRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "routing_provider_retries_total", Help: "Routing provider retries by status."},
		[]string{"status"},
	)
	// ProviderLatency tracks matrix call latencies in milliseconds.
	ProviderLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "routing_provider_latency_ms", Help: "Matrix call latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
	)
	// FallbackEstimates counts travel-time results served by the local estimator.
	FallbackEstimates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "travel_time_fallback_total", Help: "Travel times served by the haversine fallback."},
		[]string{"reason"},
	)
	// DraftRoutesGenerated counts draft routes produced per generation run.
	DraftRoutesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "draft_routes_generated_total", Help: "Draft routes produced."},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(ProviderCalls)
		Registry.MustRegister(ProviderRetries)
		Registry.MustRegister(ProviderLatency)
		Registry.MustRegister(FallbackEstimates)
		Registry.MustRegister(DraftRoutesGenerated)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
