package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Surface requests dominate; kriging is the slow path.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Surfaces produced, by requested method and outcome (ok, fallback).
	InterpolationsTotal *prometheus.CounterVec

	// Wall time to evaluate one surface.
	InterpolationDuration *prometheus.HistogramVec

	// Kriging fits or solves that were replaced by IDW. Watch for: a data set that never krigs.
	KrigingFallbacksTotal *prometheus.CounterVec

	// SampleSet construction failures by kind (invalid_variable, no_data_for_date, ...).
	SampleSetErrorsTotal *prometheus.CounterVec

	// Time to load the measurement table from its backend.
	DataSourceLoadDuration *prometheus.HistogramVec

	// Retry attempts against a remote tabular source.
	DataSourceRetriesTotal prometheus.Counter

	// Statistics summaries computed.
	StatisticsTotal prometheus.Counter

	// Circuit breaker state per data source (0=closed, 1=open, 2=half_open).
	CircuitBreakerState *prometheus.GaugeVec

	// Circuit breaker transitions. Watch for: flapping between open and half_open.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	InterpolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpolationsTotal",
			Help: "Total number of surfaces produced by requested method and outcome",
		},
		[]string{"method", "outcome"},
	)
	InterpolationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interpolationDurationSeconds",
			Help:    "Surface evaluation latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method"},
	)
	KrigingFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "krigingFallbacksTotal",
			Help: "Kriging runs replaced by IDW, by failure stage",
		},
		[]string{"reason"},
	)
	SampleSetErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sampleSetErrorsTotal",
			Help: "Sample set construction failures by kind",
		},
		[]string{"kind"},
	)
	DataSourceLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataSourceLoadDurationSeconds",
			Help:    "Measurement table load latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"backend", "status"},
	)
	DataSourceRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dataSourceRetriesTotal",
			Help: "Total number of retry attempts against a remote data source",
		},
	)
	StatisticsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "statisticsTotal",
			Help: "Total number of statistics summaries computed",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"component"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RateLimitDeniedTotal,
		InterpolationsTotal, InterpolationDuration, KrigingFallbacksTotal,
		SampleSetErrorsTotal,
		DataSourceLoadDuration, DataSourceRetriesTotal,
		StatisticsTotal,
		CircuitBreakerState, CircuitBreakerTransitionsTotal,
	)
}

// RecordInterpolation records one produced surface.
func RecordInterpolation(method string, fellBack bool, d time.Duration) {
	outcome := "ok"
	if fellBack {
		outcome = "fallback"
	}
	InterpolationsTotal.WithLabelValues(method, outcome).Inc()
	InterpolationDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordSourceLoad records one table load against backend.
func RecordSourceLoad(backend string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DataSourceLoadDuration.WithLabelValues(backend, status).Observe(d.Seconds())
}

// RecordBreakerTransition records a circuit breaker moving between states.
// States are passed as their string name and numeric value.
func RecordBreakerTransition(component, from, to string, toValue int) {
	CircuitBreakerState.WithLabelValues(component).Set(float64(toValue))
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
