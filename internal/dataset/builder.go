package dataset

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/airmap-service/internal/models"
	"github.com/kjstillabower/airmap-service/internal/observability"
)

// Columns names the fixed columns of the measurement table.
type Columns struct {
	Name      string `yaml:"name"`
	Latitude  string `yaml:"lat"`
	Longitude string `yaml:"lon"`
	Date      string `yaml:"date"`
}

// DefaultColumns matches the layout written by cmd/gendata.
func DefaultColumns() Columns {
	return Columns{Name: "name", Latitude: "lat", Longitude: "lon", Date: "date"}
}

// Builder turns the raw table into validated SampleSets. It holds no per-request state;
// the table is loaded fresh on every call.
type Builder struct {
	source   Source
	registry *Registry
	columns  Columns
	logger   *zap.Logger
}

// NewBuilder returns a Builder. logger is used when the request context carries none.
func NewBuilder(source Source, registry *Registry, columns Columns, logger *zap.Logger) *Builder {
	return &Builder{
		source:   source,
		registry: registry,
		columns:  columns,
		logger:   logger,
	}
}

// Registry returns the variable registry the builder validates against.
func (b *Builder) Registry() *Registry {
	return b.registry
}

// Build returns the SampleSet for one date and variable key.
//
// Checks run in a fixed order: the variable key is resolved before the source is
// touched (ErrInvalidVariable), then the table is loaded (ErrDataUnavailable), the
// required columns are checked on the header (*SchemaError), and finally rows are
// matched on the exact date token (ErrNoDataForDate). Rows with an empty, unparsable
// or non-finite coordinate or value are skipped and logged; a date whose rows are all
// skipped is reported as ErrNoDataForDate.
func (b *Builder) Build(ctx context.Context, date, variable string) (*models.SampleSet, error) {
	v, err := b.registry.Lookup(variable)
	if err != nil {
		return nil, err
	}

	table, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	idx, err := b.columnIndexes(table, v.Column)
	if err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx, b.logger)
	set := &models.SampleSet{Date: date, Variable: v.Key, Column: v.Column}
	matched, skipped := 0, 0
	for rowNum, rec := range table.Records {
		if cell(rec, idx.date) != date {
			continue
		}
		matched++
		s, err := parseSample(rec, idx)
		if err != nil {
			skipped++
			logger.Warn("skipping malformed row",
				zap.Int("row", rowNum+2),
				zap.String("date", date),
				zap.String("variable", v.Key),
				zap.Error(err))
			continue
		}
		set.Samples = append(set.Samples, s)
	}

	if len(set.Samples) == 0 {
		if matched > 0 {
			return nil, fmt.Errorf("%w: %s (%d rows, none usable)", ErrNoDataForDate, date, skipped)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoDataForDate, date)
	}
	return set, nil
}

// Dates returns the distinct date tokens in the source, sorted lexically.
func (b *Builder) Dates(ctx context.Context) ([]string, error) {
	table, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	di := table.Index(b.columns.Date)
	if di < 0 {
		return nil, &SchemaError{Missing: []string{b.columns.Date}}
	}
	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for _, rec := range table.Records {
		d := cell(rec, di)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// Ping loads the table once and reports whether the source is readable.
func (b *Builder) Ping(ctx context.Context) error {
	_, err := b.load(ctx)
	return err
}

func (b *Builder) load(ctx context.Context) (*Table, error) {
	start := time.Now()
	table, err := b.source.Load(ctx)
	observability.RecordSourceLoad(b.source.Name(), err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %s source: %v", ErrDataUnavailable, b.source.Name(), err)
	}
	return table, nil
}

type columnIndex struct {
	name, lat, lon, date, value int
}

func (b *Builder) columnIndexes(t *Table, valueColumn string) (columnIndex, error) {
	idx := columnIndex{
		name:  t.Index(b.columns.Name),
		lat:   t.Index(b.columns.Latitude),
		lon:   t.Index(b.columns.Longitude),
		date:  t.Index(b.columns.Date),
		value: t.Index(valueColumn),
	}
	var missing []string
	for _, c := range []struct {
		pos  int
		name string
	}{
		{idx.date, b.columns.Date},
		{idx.name, b.columns.Name},
		{idx.lat, b.columns.Latitude},
		{idx.lon, b.columns.Longitude},
		{idx.value, valueColumn},
	} {
		if c.pos < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return idx, &SchemaError{Missing: missing}
	}
	return idx, nil
}

func parseSample(rec []string, idx columnIndex) (models.Sample, error) {
	lat, err := parseFinite(cell(rec, idx.lat))
	if err != nil {
		return models.Sample{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := parseFinite(cell(rec, idx.lon))
	if err != nil {
		return models.Sample{}, fmt.Errorf("lon: %w", err)
	}
	val, err := parseFinite(cell(rec, idx.value))
	if err != nil {
		return models.Sample{}, fmt.Errorf("value: %w", err)
	}
	return models.Sample{
		Name:      cell(rec, idx.name),
		Longitude: lon,
		Latitude:  lat,
		Value:     val,
	}, nil
}

func parseFinite(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty cell")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}

// cell returns the trimmed cell at i, or "" when the record is short.
func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
