package interpolation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kjstillabower/airmap-service/internal/models"
)

// Kriging fit and evaluation failures. Each one makes the engine fall back to IDW.
var (
	ErrTooFewSamples       = errors.New("kriging needs at least 2 samples")
	ErrZeroExtent          = errors.New("sample locations have no spatial extent")
	ErrTooFewLags          = errors.New("fewer than 2 populated lag classes")
	ErrDegenerateVariogram = errors.New("fitted variogram has zero sill")
	ErrSingularSystem      = errors.New("kriging system is singular")
	ErrNonFiniteEstimate   = errors.New("kriging produced a non-finite estimate")
)

// exactTolerance is the lag below which a query counts as coincident with a sample.
const exactTolerance = 1e-10

// OrdinaryKriging is a fitted ordinary kriging model. The kriging matrix is
// inverted once at fit time; each prediction is a matrix-vector product.
type OrdinaryKriging struct {
	xs, ys, zs []float64
	variogram  Variogram
	inv        *mat.Dense
}

// FitKriging fits model to samples with nlags lag classes and prepares the
// kriging system.
func FitKriging(samples []models.Sample, model VariogramModel, nlags int) (*OrdinaryKriging, error) {
	n := len(samples)
	if n < 2 {
		return nil, ErrTooFewSamples
	}

	xs, ys, zs := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, s := range samples {
		xs[i], ys[i], zs[i] = s.Longitude, s.Latitude, s.Value
	}
	if floats.Max(xs) == floats.Min(xs) && floats.Max(ys) == floats.Min(ys) {
		return nil, ErrZeroExtent
	}

	lags, semis := experimentalVariogram(xs, ys, zs, nlags)
	if len(lags) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewLags, len(lags))
	}

	v := fitVariogram(model, lags, semis)
	if v.Sill() == 0 {
		return nil, ErrDegenerateVariogram
	}

	a := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := xs[i]-xs[j], ys[i]-ys[j]
			g := -v.At(math.Sqrt(dx*dx + dy*dy))
			a.Set(i, j, g)
			a.Set(j, i, g)
		}
		a.Set(i, n, 1)
		a.Set(n, i, 1)
	}

	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	return &OrdinaryKriging{xs: xs, ys: ys, zs: zs, variogram: v, inv: &inv}, nil
}

// Variogram returns the fitted semivariogram.
func (k *OrdinaryKriging) Variogram() Variogram {
	return k.variogram
}

// Predict returns the estimate and estimation variance at (x, y). The variance
// is clamped at zero.
func (k *OrdinaryKriging) Predict(x, y float64) (value, variance float64) {
	n := len(k.zs)
	b := mat.NewVecDense(n+1, nil)
	w := mat.NewVecDense(n+1, nil)
	return k.predict(x, y, b, w)
}

// predict reuses b and w, both of length n+1.
func (k *OrdinaryKriging) predict(x, y float64, b, w *mat.VecDense) (value, variance float64) {
	n := len(k.zs)
	for i := 0; i < n; i++ {
		dx, dy := x-k.xs[i], y-k.ys[i]
		h := math.Sqrt(dx*dx + dy*dy)
		if h <= exactTolerance {
			b.SetVec(i, 0)
		} else {
			b.SetVec(i, -k.variogram.At(h))
		}
	}
	b.SetVec(n, 1)
	w.MulVec(k.inv, b)

	for i := 0; i < n; i++ {
		value += w.AtVec(i) * k.zs[i]
	}
	for i := 0; i <= n; i++ {
		variance -= w.AtVec(i) * b.AtVec(i)
	}
	if variance < 0 {
		variance = 0
	}
	return value, variance
}

// Surface evaluates the model over grid. It fails with ErrNonFiniteEstimate if
// any cell is NaN or infinite.
func (k *OrdinaryKriging) Surface(grid models.GridSpec, workers int) (models.Surface, error) {
	xs, ys := Axes(grid)
	z := newMatrix(len(ys), len(xs))
	variance := newMatrix(len(ys), len(xs))
	n := len(k.zs)

	forEachRow(len(ys), workers, func(i int) {
		b := mat.NewVecDense(n+1, nil)
		w := mat.NewVecDense(n+1, nil)
		for j, x := range xs {
			z[i][j], variance[i][j] = k.predict(x, ys[i], b, w)
		}
	})

	for i := range z {
		for j := range z[i] {
			if !finite(z[i][j], variance[i][j]) {
				return models.Surface{}, fmt.Errorf("%w at (%v, %v)", ErrNonFiniteEstimate, xs[j], ys[i])
			}
		}
	}
	return models.Surface{Grid: grid, X: xs, Y: ys, Z: z, Variance: variance}, nil
}
