package interpolation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/airmap-service/internal/models"
)

func threeSamples() *models.SampleSet {
	return &models.SampleSet{
		Date:     "2025-01-01",
		Variable: "pm25",
		Column:   "PM25",
		Samples: []models.Sample{
			{Name: "A", Longitude: 50.0, Latitude: 19.0, Value: 30.0},
			{Name: "B", Longitude: 50.1, Latitude: 19.1, Value: 10.0},
			{Name: "C", Longitude: 50.2, Latitude: 19.2, Value: 50.0},
		},
	}
}

func defaultIDW() IDW {
	cfg := DefaultConfig()
	return IDW{Power: cfg.IDWPower, Epsilon: cfg.IDWEpsilon}
}

func TestIDW_CoincidentSampleDominates(t *testing.T) {
	got := defaultIDW().Estimate(threeSamples().Samples, 50.1, 19.1)
	assert.Equal(t, 10.0, got)
}

func TestIDW_Idempotent(t *testing.T) {
	w := defaultIDW()
	set := threeSamples()
	a := w.Estimate(set.Samples, 50.07, 19.13)
	b := w.Estimate(set.Samples, 50.07, 19.13)
	assert.Equal(t, a, b)
}

func TestIDW_SingleSampleDegenerates(t *testing.T) {
	w := defaultIDW()
	samples := []models.Sample{{Name: "only", Longitude: 19.0, Latitude: 50.0, Value: 7.3}}
	for _, p := range [][2]float64{{19.0, 50.0}, {18.2, 49.1}, {25, 55}} {
		assert.InDelta(t, 7.3, w.Estimate(samples, p[0], p[1]), 1e-12)
	}
}

func TestIDW_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w := defaultIDW()
	samples := make([]models.Sample, 12)
	lo, hi := 1e9, -1e9
	for i := range samples {
		v := rng.Float64()*100 - 20
		samples[i] = models.Sample{Longitude: 18.5 + rng.Float64(), Latitude: 49.8 + rng.Float64(), Value: v}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	for i := 0; i < 500; i++ {
		x, y := 18.0+rng.Float64()*2, 49.5+rng.Float64()*2
		got := w.Estimate(samples, x, y)
		assert.GreaterOrEqual(t, got, lo-1e-9)
		assert.LessOrEqual(t, got, hi+1e-9)
	}
}

func TestIDW_PowerChangesWeighting(t *testing.T) {
	set := threeSamples()
	near := IDW{Power: 4, Epsilon: 1e-10}.Estimate(set.Samples, 50.02, 19.02)
	flat := IDW{Power: 1, Epsilon: 1e-10}.Estimate(set.Samples, 50.02, 19.02)
	// The query sits next to A (30); a higher power pulls harder toward it.
	assert.Less(t, abs(near-30), abs(flat-30))
}

func TestIDW_Surface(t *testing.T) {
	set := threeSamples()
	grid := NewGrid(set, Resolution{X: 7, Y: 5}, 0.1)
	s := defaultIDW().Surface(set, grid, 3)

	require.Len(t, s.Z, 5)
	for _, row := range s.Z {
		assert.Len(t, row, 7)
	}
	assert.Nil(t, s.Variance)
	assert.Equal(t, grid, s.Grid)
	assert.Equal(t, defaultIDW().Estimate(set.Samples, s.X[2], s.Y[4]), s.Z[4][2])
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
