package interpolation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/airmap-service/internal/models"
	"github.com/kjstillabower/airmap-service/internal/observability"
)

// Method selects the interpolator.
type Method string

const (
	MethodIDW     Method = "idw"
	MethodKriging Method = "kriging"
)

var ErrUnknownMethod = errors.New("unknown interpolation method")

// ParseMethod accepts "idw" or "kriging" in any case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodIDW, MethodKriging:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Result is an interpolated surface plus how it was produced. When a kriging
// request falls back, Method is MethodIDW, FellBack is set and the surface has
// no variance.
type Result struct {
	Surface        models.Surface `json:"surface"`
	Requested      Method         `json:"requestedMethod"`
	Method         Method         `json:"method"`
	FellBack       bool           `json:"fellBack"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
	Variogram      *Variogram     `json:"variogram,omitempty"`
}

// Engine builds grids and runs the selected interpolator.
type Engine struct {
	cfg    Config
	idw    IDW
	logger *zap.Logger
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("interpolation config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		idw:    IDW{Power: cfg.IDWPower, Epsilon: cfg.IDWEpsilon},
		logger: logger,
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Interpolate produces a surface for set, which must be non-empty. It never
// fails: a kriging fit or evaluation failure is logged and answered with IDW
// on the kriging grid. Any method other than MethodKriging runs IDW.
func (e *Engine) Interpolate(ctx context.Context, set *models.SampleSet, method Method) Result {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, e.logger)

	if method != MethodKriging {
		grid := NewGrid(set, e.cfg.IDWResolution, e.cfg.Buffer)
		res := Result{
			Surface:   e.idw.Surface(set, grid, e.cfg.Workers),
			Requested: method,
			Method:    MethodIDW,
		}
		observability.RecordInterpolation(string(MethodIDW), false, time.Since(start))
		return res
	}

	grid := NewGrid(set, e.cfg.KrigingResolution, e.cfg.Buffer)
	surface, v, err := e.krige(set, grid)
	if err == nil {
		observability.RecordInterpolation(string(MethodKriging), false, time.Since(start))
		return Result{Surface: surface, Requested: method, Method: MethodKriging, Variogram: &v}
	}

	reason := FallbackReason(err)
	logger.Warn("kriging failed, falling back to idw",
		zap.String("date", set.Date),
		zap.String("variable", set.Variable),
		zap.Int("samples", set.Len()),
		zap.String("reason", reason),
		zap.Error(err))
	observability.KrigingFallbacksTotal.WithLabelValues(reason).Inc()

	res := Result{
		Surface:        e.idw.Surface(set, grid, e.cfg.Workers),
		Requested:      method,
		Method:         MethodIDW,
		FellBack:       true,
		FallbackReason: reason,
	}
	observability.RecordInterpolation(string(MethodKriging), true, time.Since(start))
	return res
}

func (e *Engine) krige(set *models.SampleSet, grid models.GridSpec) (models.Surface, Variogram, error) {
	model, err := FitKriging(set.Samples, e.cfg.Variogram, e.cfg.Lags)
	if err != nil {
		return models.Surface{}, Variogram{}, err
	}
	surface, err := model.Surface(grid, e.cfg.Workers)
	if err != nil {
		return models.Surface{}, Variogram{}, err
	}
	return surface, model.Variogram(), nil
}

// FallbackReason maps a kriging failure to a short label for logs and metrics.
func FallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrTooFewSamples):
		return "too_few_samples"
	case errors.Is(err, ErrZeroExtent):
		return "zero_extent"
	case errors.Is(err, ErrTooFewLags):
		return "too_few_lags"
	case errors.Is(err, ErrDegenerateVariogram):
		return "degenerate_variogram"
	case errors.Is(err, ErrSingularSystem):
		return "singular_system"
	case errors.Is(err, ErrNonFiniteEstimate):
		return "non_finite_estimate"
	default:
		return "unknown"
	}
}
