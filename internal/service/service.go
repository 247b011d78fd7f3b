package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/airmap-service/internal/dataset"
	"github.com/kjstillabower/airmap-service/internal/interpolation"
	"github.com/kjstillabower/airmap-service/internal/models"
	"github.com/kjstillabower/airmap-service/internal/observability"
	"github.com/kjstillabower/airmap-service/internal/stats"
)

// SampleBuilder produces validated sample sets from the measurement source.
type SampleBuilder interface {
	Build(ctx context.Context, date, variable string) (*models.SampleSet, error)
	Dates(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Interpolator turns a sample set into a surface.
type Interpolator interface {
	Interpolate(ctx context.Context, set *models.SampleSet, method interpolation.Method) interpolation.Result
}

// SurfaceReport is an interpolated surface together with the samples it was built
// from, for point overlays.
type SurfaceReport struct {
	Date        string               `json:"date"`
	Variable    string               `json:"variable"`
	Column      string               `json:"column"`
	Samples     []models.Sample      `json:"samples"`
	Result      interpolation.Result `json:"result"`
	GeneratedAt time.Time            `json:"generatedAt"`
}

// StatisticsReport is the summary of one sample set.
type StatisticsReport struct {
	Date        string            `json:"date"`
	Variable    string            `json:"variable"`
	Column      string            `json:"column"`
	Statistics  models.Statistics `json:"statistics"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// MapService answers surface and statistics requests. Every call recomputes from
// the source; nothing is retained between requests.
type MapService struct {
	builder      SampleBuilder
	variables    *dataset.Registry
	interpolator Interpolator
	clock        clockwork.Clock
	logger       *zap.Logger
}

// NewMapService wires the service. A nil clock uses the real clock.
func NewMapService(builder SampleBuilder, variables *dataset.Registry, interpolator Interpolator, clock clockwork.Clock, logger *zap.Logger) *MapService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapService{
		builder:      builder,
		variables:    variables,
		interpolator: interpolator,
		clock:        clock,
		logger:       logger,
	}
}

// Dates lists the date tokens present in the source.
func (s *MapService) Dates(ctx context.Context) ([]string, error) {
	dates, err := s.builder.Dates(ctx)
	if err != nil {
		observability.SampleSetErrorsTotal.WithLabelValues(dataset.Kind(err)).Inc()
		return nil, fmt.Errorf("list dates: %w", err)
	}
	return dates, nil
}

// Variables lists the recognized variable keys and their columns.
func (s *MapService) Variables() []dataset.Variable {
	return s.variables.Variables()
}

// Samples returns the validated sample set for date and variable.
func (s *MapService) Samples(ctx context.Context, date, variable string) (*models.SampleSet, error) {
	set, err := s.builder.Build(ctx, date, variable)
	if err != nil {
		observability.SampleSetErrorsTotal.WithLabelValues(dataset.Kind(err)).Inc()
		return nil, fmt.Errorf("build samples for %s/%s: %w", date, variable, err)
	}
	return set, nil
}

// Surface interpolates the sample set for date and variable with method. Only
// sample set construction can fail; interpolation problems are absorbed by the
// engine's fallback.
func (s *MapService) Surface(ctx context.Context, date, variable string, method interpolation.Method) (SurfaceReport, error) {
	start := s.clock.Now()
	set, err := s.Samples(ctx, date, variable)
	if err != nil {
		return SurfaceReport{}, err
	}

	res := s.interpolator.Interpolate(ctx, set, method)

	logger := observability.LoggerFromContext(ctx, s.logger)
	logger.Debug("surface served",
		zap.String("date", set.Date),
		zap.String("variable", set.Variable),
		zap.String("requestedMethod", string(method)),
		zap.String("method", string(res.Method)),
		zap.Bool("fellBack", res.FellBack),
		zap.Int("samples", set.Len()),
		zap.Duration("duration", s.clock.Since(start)))

	return SurfaceReport{
		Date:        set.Date,
		Variable:    set.Variable,
		Column:      set.Column,
		Samples:     set.Samples,
		Result:      res,
		GeneratedAt: s.clock.Now().UTC(),
	}, nil
}

// Statistics summarizes the sample set for date and variable.
func (s *MapService) Statistics(ctx context.Context, date, variable string) (StatisticsReport, error) {
	set, err := s.Samples(ctx, date, variable)
	if err != nil {
		return StatisticsReport{}, err
	}

	summary, err := stats.Summarize(set.Values())
	if err != nil {
		return StatisticsReport{}, fmt.Errorf("summarize %s/%s: %w", date, variable, err)
	}
	observability.StatisticsTotal.Inc()

	return StatisticsReport{
		Date:        set.Date,
		Variable:    set.Variable,
		Column:      set.Column,
		Statistics:  summary,
		GeneratedAt: s.clock.Now().UTC(),
	}, nil
}

// Ping checks that the measurement source can be read.
func (s *MapService) Ping(ctx context.Context) error {
	return s.builder.Ping(ctx)
}
