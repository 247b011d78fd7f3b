//go:build integration
// +build integration

package dataset_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kjstillabower/airmap-service/internal/dataset"
	"github.com/kjstillabower/airmap-service/internal/testhelpers"
)

func ptr(v float64) *float64 { return &v }

func TestPostgresSource_Integration(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	jan1 := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	jan2 := jan1.AddDate(0, 0, 1)

	src, cleanup := testhelpers.SetupPostgresSource(t, cfg, []testhelpers.Measurement{
		{Name: "Katowice", Lat: 50.2643, Lon: 19.0235, Date: jan1, PM25: ptr(31.5), Temperature: -1, Humidity: 80},
		{Name: "Sosnowiec", Lat: 50.2779, Lon: 19.1267, Date: jan1, PM25: ptr(28), Temperature: 0.5, Humidity: 75},
		{Name: "Bytom", Lat: 50.35, Lon: 18.91, Date: jan1, PM25: nil, Temperature: 1, Humidity: 70},
		{Name: "Katowice", Lat: 50.2643, Lon: 19.0235, Date: jan2, PM25: ptr(30), Temperature: -2, Humidity: 82},
	})
	defer cleanup()

	reg, err := dataset.NewRegistry(dataset.DefaultVariables())
	require.NoError(t, err)
	b := dataset.NewBuilder(src, reg, dataset.DefaultColumns(), zap.NewNop())
	ctx := context.Background()

	set, err := b.Build(ctx, "2025-01-01", "pm25")
	require.NoError(t, err)
	require.Equal(t, 2, set.Len(), "row with NULL PM25 is skipped")
	assert.Equal(t, 31.5, set.Samples[0].Value)
	assert.Equal(t, 19.0235, set.Samples[0].Longitude)

	temps, err := b.Build(ctx, "2025-01-01", "temp")
	require.NoError(t, err)
	assert.Equal(t, 3, temps.Len())

	dates, err := b.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, dates)
}
