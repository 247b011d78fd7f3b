package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/airmap-service/internal/dataset"
	"github.com/kjstillabower/airmap-service/internal/interpolation"
	"github.com/kjstillabower/airmap-service/internal/observability"
	"github.com/kjstillabower/airmap-service/internal/service"
	"github.com/kjstillabower/airmap-service/internal/traffic"
	"github.com/kjstillabower/airmap-service/internal/validation"
)

const maxDateLen = 32

// HealthConfig holds the thresholds the health handler applies.
type HealthConfig struct {
	Traffic traffic.Thresholds
	// Idle is only reported once the process has been up for MinimumLifespan.
	MinimumLifespan time.Duration
	// BreakerState, when set, reports the data source circuit breaker state.
	BreakerState func() string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	mapService       *service.MapService
	tracker          *traffic.Tracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	clock            clockwork.Clock
	startTime        time.Time
	shuttingDown     atomic.Bool
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. A nil clock uses the real clock.
func NewHandler(
	mapService *service.MapService,
	tracker *traffic.Tracker,
	healthConfig *HealthConfig,
	clock clockwork.Clock,
	logger *zap.Logger,
) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tracker == nil {
		tracker = traffic.New(clock)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		mapService:   mapService,
		tracker:      tracker,
		healthConfig: healthConfig,
		logger:       logger,
		clock:        clock,
		startTime:    clock.Now(),
	}
}

// SetShuttingDown flips the drain flag. /health answers 503 while it is set.
func (h *Handler) SetShuttingDown(v bool) {
	h.shuttingDown.Store(v)
}

// IsShuttingDown reports the drain flag.
func (h *Handler) IsShuttingDown() bool {
	return h.shuttingDown.Load()
}

// GetDates handles GET /api/dates.
func (h *Handler) GetDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.mapService.Dates(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, map[string]interface{}{"dates": dates})
}

// GetVariables handles GET /api/variables.
func (h *Handler) GetVariables(w http.ResponseWriter, r *http.Request) {
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, map[string]interface{}{"variables": h.mapService.Variables()})
}

// GetSamples handles GET /api/samples?date=&variable=.
func (h *Handler) GetSamples(w http.ResponseWriter, r *http.Request) {
	date, variable, ok := h.sampleQuery(w, r)
	if !ok {
		return
	}
	set, err := h.mapService.Samples(r.Context(), date, variable)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, set)
}

// GetSurface handles GET /api/surface?date=&variable=&method=. The method
// defaults to idw.
func (h *Handler) GetSurface(w http.ResponseWriter, r *http.Request) {
	date, variable, ok := h.sampleQuery(w, r)
	if !ok {
		return
	}
	method := interpolation.MethodIDW
	if raw := r.URL.Query().Get("method"); raw != "" {
		m, err := interpolation.ParseMethod(raw)
		if err != nil {
			h.writeBadRequest(w, r, "INVALID_METHOD", "method must be idw or kriging")
			return
		}
		method = m
	}

	rep, err := h.mapService.Surface(r.Context(), date, variable, method)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, rep)
}

// GetStatistics handles GET /api/statistics?date=&variable=.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	date, variable, ok := h.sampleQuery(w, r)
	if !ok {
		return
	}
	rep, err := h.mapService.Statistics(r.Context(), date, variable)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, rep)
}

// sampleQuery validates the date and variable query parameters and writes a
// 400 when either is malformed.
func (h *Handler) sampleQuery(w http.ResponseWriter, r *http.Request) (date, variable string, ok bool) {
	q := r.URL.Query()
	date, err := validation.ValidateDate(q.Get("date"), maxDateLen)
	if err != nil {
		h.writeBadRequest(w, r, "INVALID_DATE", err.Error())
		return "", "", false
	}
	variable, err = validation.ValidateVariable(q.Get("variable"))
	if err != nil {
		h.writeBadRequest(w, r, "INVALID_VARIABLE", err.Error())
		return "", "", false
	}
	return date, variable, true
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
	sourceErr  error
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"dataSource": "healthy"}
	if result.sourceErr != nil {
		checks["dataSource"] = "unhealthy"
	}
	if h.healthConfig != nil && h.healthConfig.BreakerState != nil {
		checks["circuitBreaker"] = h.healthConfig.BreakerState()
	}
	now := h.clock.Now()
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":        result.status,
		"service":       "airmap-service",
		"version":       "dev",
		"checks":        checks,
		"uptimeSeconds": int64(now.Sub(h.startTime).Seconds()),
		"timestamp":     now.UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates, in order: shutting-down, data source
// reachability, then recent traffic (overloaded, degraded, idle).
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if h.IsShuttingDown() {
		return healthResult{status: "shutting-down", statusCode: http.StatusServiceUnavailable, reason: "signal"}
	}
	if err := h.mapService.Ping(ctx); err != nil {
		return healthResult{status: "degraded", statusCode: http.StatusServiceUnavailable, reason: "data_source_unavailable", sourceErr: err}
	}
	if h.healthConfig == nil {
		return healthResult{status: "healthy", statusCode: http.StatusOK}
	}

	switch h.tracker.Assess(h.healthConfig.Traffic) {
	case traffic.StatusOverloaded:
		return healthResult{status: "overloaded", statusCode: http.StatusServiceUnavailable, reason: "rate_limit_denials"}
	case traffic.StatusDegraded:
		return healthResult{status: "degraded", statusCode: http.StatusServiceUnavailable, reason: "error_rate_breach"}
	case traffic.StatusIdle:
		if h.clock.Since(h.startTime) >= h.healthConfig.MinimumLifespan {
			return healthResult{status: "idle", statusCode: http.StatusOK, reason: "low_traffic"}
		}
	}
	return healthResult{status: "healthy", statusCode: http.StatusOK}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"requestId"`
	Missing   []string `json:"missing,omitempty"`
}

// writeError writes the standard error envelope. requestId is the correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, body errorBody) {
	body.RequestID = observability.CorrelationID(r.Context())
	writeJSON(w, status, map[string]interface{}{"error": body})
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	h.tracker.RecordSuccess()
	writeError(w, r, http.StatusBadRequest, errorBody{Code: code, Message: message})
}

// writeServiceError maps sample set failures onto status codes. Caller errors
// count as successes for the degraded check; source and schema problems count
// as errors.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)

	var schemaErr *dataset.SchemaError
	switch {
	case errors.Is(err, dataset.ErrInvalidVariable):
		h.tracker.RecordSuccess()
		writeError(w, r, http.StatusBadRequest, errorBody{Code: "INVALID_VARIABLE", Message: "unknown variable"})
	case errors.Is(err, dataset.ErrNoDataForDate):
		h.tracker.RecordSuccess()
		writeError(w, r, http.StatusNotFound, errorBody{Code: "NO_DATA_FOR_DATE", Message: "no measurements for the requested date"})
	case errors.As(err, &schemaErr):
		h.tracker.RecordError()
		logger.Error("measurement source schema mismatch", zap.Strings("missing", schemaErr.Missing))
		writeError(w, r, http.StatusInternalServerError, errorBody{
			Code:    "SCHEMA_MISMATCH",
			Message: "measurement source is missing required columns",
			Missing: schemaErr.Missing,
		})
	case errors.Is(err, dataset.ErrDataUnavailable):
		h.tracker.RecordError()
		logger.Warn("measurement source unavailable", zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, errorBody{Code: "DATA_UNAVAILABLE", Message: "unable to read measurement data"})
	default:
		h.tracker.RecordError()
		logger.Error("request failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal error"})
	}
}
