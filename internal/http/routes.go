package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/airmap-service/internal/observability"
	"github.com/kjstillabower/airmap-service/internal/traffic"
)

// RouterConfig holds the per-route middleware settings.
type RouterConfig struct {
	RequestTimeout time.Duration
	Limiter        *rate.Limiter // nil disables rate limiting
	InFlight       *InFlightTracker
	Tracker        *traffic.Tracker
}

// NewRouter mounts /health, /metrics and the rate-limited /api routes.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	if cfg.InFlight != nil {
		router.Use(cfg.InFlight.Middleware)
	}
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(cfg.Limiter, cfg.Tracker))
	if cfg.RequestTimeout > 0 {
		api.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	api.HandleFunc("/dates", h.GetDates).Methods(http.MethodGet)
	api.HandleFunc("/variables", h.GetVariables).Methods(http.MethodGet)
	api.HandleFunc("/samples", h.GetSamples).Methods(http.MethodGet)
	api.HandleFunc("/surface", h.GetSurface).Methods(http.MethodGet)
	api.HandleFunc("/statistics", h.GetStatistics).Methods(http.MethodGet)
	return router
}
