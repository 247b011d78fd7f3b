package interpolation

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VariogramModel names the semivariogram shape fitted before kriging.
type VariogramModel string

const (
	Spherical   VariogramModel = "spherical"
	Exponential VariogramModel = "exponential"
	Gaussian    VariogramModel = "gaussian"
)

// ParseVariogramModel accepts a model name in any case.
func ParseVariogramModel(s string) (VariogramModel, error) {
	switch m := VariogramModel(strings.ToLower(strings.TrimSpace(s))); m {
	case Spherical, Exponential, Gaussian:
		return m, nil
	}
	return "", fmt.Errorf("unknown variogram model %q", s)
}

// shape returns the unit-sill structure of the model at lag h for range r.
func (m VariogramModel) shape(h, r float64) float64 {
	switch m {
	case Exponential:
		return 1 - math.Exp(-h/(r/3))
	case Gaussian:
		a := r * 4 / 7
		return 1 - math.Exp(-(h*h)/(a*a))
	default:
		if h > r {
			return 1
		}
		q := h / r
		return 1.5*q - 0.5*q*q*q
	}
}

// Variogram is a fitted semivariogram.
type Variogram struct {
	Model       VariogramModel `json:"model"`
	PartialSill float64        `json:"partialSill"`
	Range       float64        `json:"range"`
	Nugget      float64        `json:"nugget"`
}

// At returns the semivariance at lag h.
func (v Variogram) At(h float64) float64 {
	return v.PartialSill*v.Model.shape(h, v.Range) + v.Nugget
}

// Sill is the total sill, partial sill plus nugget.
func (v Variogram) Sill() float64 {
	return v.PartialSill + v.Nugget
}

// rangeCandidates is the number of evenly spaced range values tried in (0, max lag].
const rangeCandidates = 200

// experimentalVariogram bins pairwise semivariances 0.5*(zi-zj)^2 into nlags
// equal-width distance classes between the smallest and largest pair distance.
// The last edge is nudged outward so the farthest pair is counted. Empty classes
// are dropped. Returned lags and semivariances are class means.
func experimentalVariogram(xs, ys, zs []float64, nlags int) (lags, semis []float64) {
	n := len(zs)
	d := make([]float64, 0, n*(n-1)/2)
	g := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := xs[i]-xs[j], ys[i]-ys[j]
			d = append(d, math.Sqrt(dx*dx+dy*dy))
			dz := zs[i] - zs[j]
			g = append(g, 0.5*dz*dz)
		}
	}
	if len(d) == 0 {
		return nil, nil
	}

	edges := linspace(floats.Min(d), floats.Max(d), nlags+1)
	edges[nlags] += 0.001

	for b := 0; b < nlags; b++ {
		var sumD, sumG float64
		count := 0
		for k, dk := range d {
			if dk >= edges[b] && dk < edges[b+1] {
				sumD += dk
				sumG += g[k]
				count++
			}
		}
		if count == 0 {
			continue
		}
		lags = append(lags, sumD/float64(count))
		semis = append(semis, sumG/float64(count))
	}
	return lags, semis
}

// fitVariogram fits (partial sill, range, nugget) to the experimental variogram
// by bounded least squares. For each candidate range the model is linear in the
// sill and nugget, which are solved in closed form within
// psill in [0, 10*max(semi)] and nugget in [0, max(semi)].
func fitVariogram(model VariogramModel, lags, semis []float64) Variogram {
	maxLag := floats.Max(lags)
	maxSemi := floats.Max(semis)
	bounds := box{psillHi: 10 * maxSemi, nuggetHi: maxSemi}

	best := Variogram{Model: model, Range: maxLag}
	bestSSE := math.Inf(1)
	f := make([]float64, len(lags))
	for k := 1; k <= rangeCandidates; k++ {
		r := maxLag * float64(k) / rangeCandidates
		for i, h := range lags {
			f[i] = model.shape(h, r)
		}
		psill, nugget, sse := bounds.solve(f, semis)
		if sse < bestSSE {
			bestSSE = sse
			best = Variogram{Model: model, PartialSill: psill, Range: r, Nugget: nugget}
		}
	}
	return best
}

// box bounds the linear (psill, nugget) sub-problem; lower bounds are zero.
type box struct {
	psillHi, nuggetHi float64
}

// solve minimizes sum((p*f + c - y)^2) over the box. The objective is a convex
// quadratic, so the minimum is either the unconstrained solution or lies on an
// edge of the box.
func (b box) solve(f, y []float64) (psill, nugget, sse float64) {
	sse = math.Inf(1)
	try := func(p, c float64) {
		if e := residual(f, y, p, c); e < sse {
			psill, nugget, sse = p, c, e
		}
	}

	if c, p := stat.LinearRegression(f, y, nil, false); finite(p, c) && b.contains(p, c) {
		try(p, c)
		return psill, nugget, sse
	}

	for _, p := range []float64{0, b.psillHi} {
		try(p, clamp(stat.Mean(sub(y, f, p), nil), 0, b.nuggetHi))
	}
	for _, c := range []float64{0, b.nuggetHi} {
		shifted := sub(y, nil, c)
		_, p := stat.LinearRegression(f, shifted, nil, true)
		if !finite(p) {
			p = 0
		}
		try(clamp(p, 0, b.psillHi), c)
	}
	return psill, nugget, sse
}

func (b box) contains(p, c float64) bool {
	return p >= 0 && p <= b.psillHi && c >= 0 && c <= b.nuggetHi
}

// sub returns y - p*f, or y - p when f is nil.
func sub(y, f []float64, p float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		if f == nil {
			out[i] = y[i] - p
		} else {
			out[i] = y[i] - p*f[i]
		}
	}
	return out
}

func residual(f, y []float64, p, c float64) float64 {
	var sse float64
	for i := range y {
		r := p*f[i] + c - y[i]
		sse += r * r
	}
	return sse
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
