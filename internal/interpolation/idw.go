package interpolation

import (
	"math"

	"github.com/kjstillabower/airmap-service/internal/models"
)

// IDW is inverse distance weighting over planar degree distances.
type IDW struct {
	Power   float64
	Epsilon float64
}

// Estimate returns sum(w*v)/sum(w) with w = 1/d^Power. A zero distance is
// replaced by Epsilon, so a query on a sample is dominated by that sample but
// not forced to equal it. samples must be non-empty.
func (w IDW) Estimate(samples []models.Sample, x, y float64) float64 {
	var num, den float64
	for _, s := range samples {
		dx, dy := x-s.Longitude, y-s.Latitude
		d := math.Sqrt(dx*dx + dy*dy)
		if d == 0 {
			d = w.Epsilon
		}
		wk := 1 / math.Pow(d, w.Power)
		num += wk * s.Value
		den += wk
	}
	return num / den
}

// Surface evaluates Estimate at every lattice point of grid.
func (w IDW) Surface(set *models.SampleSet, grid models.GridSpec, workers int) models.Surface {
	xs, ys := Axes(grid)
	z := newMatrix(len(ys), len(xs))
	forEachRow(len(ys), workers, func(i int) {
		row := z[i]
		for j, x := range xs {
			row[j] = w.Estimate(set.Samples, x, ys[i])
		}
	})
	return models.Surface{Grid: grid, X: xs, Y: ys, Z: z}
}
