package interpolation

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kjstillabower/airmap-service/internal/models"
)

// NewGrid pads the sample extent by buffer degrees and attaches the resolution.
// set must be non-empty.
func NewGrid(set *models.SampleSet, res Resolution, buffer float64) models.GridSpec {
	ext := set.Extent()
	return models.GridSpec{
		Bounds: models.Bounds{
			MinX: ext.MinX - buffer,
			MaxX: ext.MaxX + buffer,
			MinY: ext.MinY - buffer,
			MaxY: ext.MaxY + buffer,
		},
		ResolutionX: res.X,
		ResolutionY: res.Y,
	}
}

// Axes returns the evenly spaced longitude and latitude coordinates of the
// lattice. The first and last coordinates equal the box edges exactly.
func Axes(g models.GridSpec) (xs, ys []float64) {
	return linspace(g.MinX, g.MaxX, g.ResolutionX), linspace(g.MinY, g.MaxY, g.ResolutionY)
}

func linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := floats.Span(make([]float64, n), lo, hi)
	out[0], out[n-1] = lo, hi
	return out
}

// newMatrix allocates a rows x cols matrix backed by one slice.
func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}
