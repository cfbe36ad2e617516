package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldcare-dispatch-service/internal/api/handlers"
	"fieldcare-dispatch-service/internal/metrics"
	"fieldcare-dispatch-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root; handlers stay unaware of
// concrete adapters.
func NewRouter(generator *services.DraftRouteGenerator) http.Handler {
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	draftHandler := &handlers.DraftHandler{Generator: generator}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/draft-routes", draftHandler.Generate)
	mux.HandleFunc("/draft-routes/apply", draftHandler.Apply)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return loggingMiddleware(mux)
}
