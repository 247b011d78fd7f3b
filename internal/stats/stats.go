// Package stats computes descriptive statistics over a sample set's values.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kjstillabower/airmap-service/internal/models"
)

// ErrEmpty is returned for an empty value slice.
var ErrEmpty = errors.New("no values to summarize")

// Summarize returns the descriptive statistics of values. The standard deviation
// uses the n-1 divisor and is 0 for a single value. Quartiles interpolate
// linearly between order statistics. The coefficient of variation is a
// percentage and is 0 when the mean is 0. values is not modified.
func Summarize(values []float64) (models.Statistics, error) {
	n := len(values)
	if n == 0 {
		return models.Statistics{}, ErrEmpty
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, variance := stat.MeanVariance(sorted, nil)
	if n == 1 {
		variance = 0
	}
	std := math.Sqrt(variance)

	q1 := Percentile(sorted, 0.25)
	q3 := Percentile(sorted, 0.75)

	cv := 0.0
	if mean != 0 {
		cv = std / mean * 100
	}

	return models.Statistics{
		Count:                  n,
		Min:                    floats.Min(sorted),
		Max:                    floats.Max(sorted),
		Mean:                   mean,
		Median:                 Percentile(sorted, 0.5),
		StdDev:                 std,
		Variance:               variance,
		Q1:                     q1,
		Q3:                     q3,
		IQR:                    q3 - q1,
		CoefficientOfVariation: cv,
	}, nil
}

// Percentile returns the p-quantile (0 <= p <= 1) of sorted by linear
// interpolation at position p*(n-1). sorted must be ascending and non-empty.
func Percentile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
