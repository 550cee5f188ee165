package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"van-route-service/internal/api/handlers"
	"van-route-service/internal/config"
	"van-route-service/internal/platform/metrics"
	"van-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root; handlers stay
// unaware of concrete adapters.
func NewRouter(planner *services.Planner, defaults config.Fleet) http.Handler {
	mux := http.NewServeMux()

	sessions := handlers.NewSessionStore()
	planHandler := &handlers.PlanHandler{
		Planner:  planner,
		Sessions: sessions,
		Defaults: defaults,
	}
	editHandler := &handlers.EditHandler{Sessions: sessions}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /plans", planHandler.Create)
	mux.HandleFunc("GET /plans/{id}", planHandler.Get)
	mux.HandleFunc("POST /plans/{id}/edits", editHandler.Edit)
	mux.HandleFunc("POST /plans/{id}/reset", editHandler.Reset)

	return loggingMiddleware(mux)
}
