package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/airmap-service/internal/observability"
)

const testCSV = `name,lat,lon,date,PM25,temperatura,wilgotnosc
A,19.0,50.0,2025-01-01,30.0,1.5,60
B,19.1,50.1,2025-01-01,10.0,2.5,61
C,19.2,50.2,2025-01-01,50.0,3.5,62
A,19.0,50.0,2025-01-02,31.0,1.0,70
`

// stubSource returns a fixed table or error and counts loads.
type stubSource struct {
	table *Table
	err   error
	loads int
}

func (s *stubSource) Load(ctx context.Context) (*Table, error) {
	s.loads++
	return s.table, s.err
}

func (s *stubSource) Name() string { return "stub" }

func mustTable(t *testing.T, doc string) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(doc))
	require.NoError(t, err)
	return tbl
}

func newTestBuilder(t *testing.T, src Source) *Builder {
	t.Helper()
	reg, err := NewRegistry(DefaultVariables())
	require.NoError(t, err)
	return NewBuilder(src, reg, DefaultColumns(), zap.NewNop())
}

func TestBuild_FiltersByDate(t *testing.T) {
	b := newTestBuilder(t, &stubSource{table: mustTable(t, testCSV)})

	set, err := b.Build(context.Background(), "2025-01-01", "pm25")
	require.NoError(t, err)

	assert.Equal(t, "2025-01-01", set.Date)
	assert.Equal(t, "pm25", set.Variable)
	assert.Equal(t, "PM25", set.Column)
	require.Equal(t, 3, set.Len())
	assert.Equal(t, "B", set.Samples[1].Name)
	assert.Equal(t, 50.1, set.Samples[1].Longitude)
	assert.Equal(t, 19.1, set.Samples[1].Latitude)
	assert.Equal(t, 10.0, set.Samples[1].Value)
	assert.Equal(t, []float64{30, 10, 50}, set.Values())
}

func TestBuild_VariableKeyCaseInsensitive(t *testing.T) {
	b := newTestBuilder(t, &stubSource{table: mustTable(t, testCSV)})

	set, err := b.Build(context.Background(), "2025-01-02", " TEMP ")
	require.NoError(t, err)
	assert.Equal(t, "temp", set.Variable)
	assert.Equal(t, []float64{1.0}, set.Values())
}

func TestBuild_InvalidVariableBeforeSourceAccess(t *testing.T) {
	src := &stubSource{table: mustTable(t, testCSV)}
	b := newTestBuilder(t, src)

	// Date has no rows either; the variable check must win.
	_, err := b.Build(context.Background(), "1999-01-01", "ozone")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVariable)
	assert.Equal(t, 0, src.loads, "source must not be read for an invalid variable")
	assert.Equal(t, "invalid_variable", Kind(err))
}

func TestBuild_DataUnavailable(t *testing.T) {
	b := newTestBuilder(t, &stubSource{err: errors.New("disk gone")})

	_, err := b.Build(context.Background(), "2025-01-01", "pm25")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestBuild_NoDataForDate(t *testing.T) {
	b := newTestBuilder(t, &stubSource{table: mustTable(t, testCSV)})

	_, err := b.Build(context.Background(), "2030-12-31", "pm25")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDataForDate)
	assert.False(t, errors.Is(err, ErrDataUnavailable))
}

func TestBuild_DateIsOpaqueToken(t *testing.T) {
	b := newTestBuilder(t, &stubSource{table: mustTable(t, testCSV)})

	_, err := b.Build(context.Background(), "2025-1-1", "pm25")
	assert.ErrorIs(t, err, ErrNoDataForDate)
}

func TestBuild_SchemaMismatchListsMissingColumns(t *testing.T) {
	doc := "name,latitude,lon,date,PM25\nA,1,2,2025-01-01,3\n"
	b := newTestBuilder(t, &stubSource{table: mustTable(t, doc)})

	_, err := b.Build(context.Background(), "2025-01-01", "temp")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"lat", "temperatura"}, se.Missing)
}

func TestBuild_SkipsMalformedRows(t *testing.T) {
	doc := `name,lat,lon,date,PM25,temperatura,wilgotnosc
A,19.0,50.0,2025-01-01,,1,1
B,19.1,50.1,2025-01-01,NaN,1,1
C,19.2,abc,2025-01-01,5,1,1
D,19.3,50.3,2025-01-01,7.5,1,1
`
	core, logs := observer.New(zap.WarnLevel)
	b := newTestBuilder(t, &stubSource{table: mustTable(t, doc)})
	ctx := observability.WithLogger(context.Background(), zap.New(core))

	set, err := b.Build(ctx, "2025-01-01", "pm25")
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "D", set.Samples[0].Name)
	assert.Equal(t, 3, logs.FilterMessage("skipping malformed row").Len())
}

func TestBuild_AllRowsMalformedIsNoData(t *testing.T) {
	doc := "name,lat,lon,date,PM25,temperatura,wilgotnosc\nA,19.0,50.0,2025-01-01,Inf,1,1\n"
	b := newTestBuilder(t, &stubSource{table: mustTable(t, doc)})

	_, err := b.Build(context.Background(), "2025-01-01", "pm25")
	assert.ErrorIs(t, err, ErrNoDataForDate)
}

func TestDates_SortedUnique(t *testing.T) {
	b := newTestBuilder(t, &stubSource{table: mustTable(t, testCSV)})

	dates, err := b.Dates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, dates)
}

func TestDates_MissingDateColumn(t *testing.T) {
	b := newTestBuilder(t, &stubSource{table: mustTable(t, "name,lat,lon\nA,1,2\n")})

	_, err := b.Dates(context.Background())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrDataUnavailable, "data_unavailable"},
		{ErrNoDataForDate, "no_data_for_date"},
		{&SchemaError{Missing: []string{"lat"}}, "schema_mismatch"},
		{ErrInvalidVariable, "invalid_variable"},
		{errors.New("other"), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), tt.err.Error())
	}
}
