package interpolation

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid_PadsExtent(t *testing.T) {
	g := NewGrid(threeSamples(), Resolution{X: 150, Y: 120}, 0.1)

	assert.InDelta(t, 49.9, g.MinX, 1e-12)
	assert.InDelta(t, 50.3, g.MaxX, 1e-12)
	assert.InDelta(t, 18.9, g.MinY, 1e-12)
	assert.InDelta(t, 19.3, g.MaxY, 1e-12)
	assert.Equal(t, 150, g.ResolutionX)
	assert.Equal(t, 120, g.ResolutionY)
}

func TestNewGrid_SingleSampleHasArea(t *testing.T) {
	set := threeSamples()
	set.Samples = set.Samples[:1]
	g := NewGrid(set, Resolution{X: 2, Y: 2}, 0.1)
	assert.Greater(t, g.MaxX, g.MinX)
	assert.Greater(t, g.MaxY, g.MinY)
}

func TestAxes_EndpointsExact(t *testing.T) {
	g := NewGrid(threeSamples(), Resolution{X: 150, Y: 150}, 0.1)
	xs, ys := Axes(g)

	require.Len(t, xs, 150)
	require.Len(t, ys, 150)
	assert.Equal(t, g.MinX, xs[0])
	assert.Equal(t, g.MaxX, xs[149])
	assert.Equal(t, g.MinY, ys[0])
	assert.Equal(t, g.MaxY, ys[149])
	for i := 1; i < len(xs); i++ {
		assert.Greater(t, xs[i], xs[i-1])
	}
}

func TestLinspace(t *testing.T) {
	assert.Nil(t, linspace(0, 1, 0))
	assert.Equal(t, []float64{2}, linspace(2, 5, 1))
	assert.Equal(t, []float64{0, 0.5, 1}, linspace(0, 1, 3))
}

func TestForEachRow_VisitsEveryRowOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		var visits [10]int32
		forEachRow(len(visits), workers, func(i int) {
			atomic.AddInt32(&visits[i], 1)
		})
		for i, v := range visits {
			assert.Equal(t, int32(1), v, "workers=%d row=%d", workers, i)
		}
	}
}
