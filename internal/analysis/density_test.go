package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestHistogramCountsEveryValue(t *testing.T) {
	vals := []float64{1, 2, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	h := NewHistogram(vals, 10)
	require.Len(t, h.Edges, 11)
	require.Len(t, h.Counts, 10)
	assert.Equal(t, float64(len(vals)), floats.Sum(h.Counts))
	assert.Equal(t, 1.0, h.Edges[0])
	assert.InDelta(t, 10.0, h.Edges[10], 1e-12)
	assert.Equal(t, 1.0, h.Counts[9], "max lands in the last, right-closed bin")
}

func TestHistogramConstantAndEmpty(t *testing.T) {
	h := NewHistogram([]float64{3, 3, 3}, 4)
	assert.Equal(t, 3.0, floats.Sum(h.Counts))
	assert.Equal(t, 2.5, h.Edges[0])

	empty := NewHistogram([]float64{math.NaN()}, 4)
	assert.Empty(t, empty.Counts)
}

func TestKDEIntegratesToOne(t *testing.T) {
	vals := []float64{1, 2, 2.5, 3, 3.2, 4, 6}
	d := KDE(vals, 400)
	require.Len(t, d.X, 400)
	require.Len(t, d.Y, 400)
	assert.Greater(t, d.Bandwidth, 0.0)
	step := d.X[1] - d.X[0]
	area := floats.Sum(d.Y) * step
	assert.InDelta(t, 1.0, area, 0.02)
}

func TestKDEDegenerate(t *testing.T) {
	d := KDE([]float64{5}, 0)
	assert.Len(t, d.X, 200)
	assert.Equal(t, 1.0, d.Bandwidth)
	assert.Empty(t, KDE(nil, 10).X)
}

func TestKDEBetweenSharesBandwidth(t *testing.T) {
	vals := []float64{1, 2, 2, 3, 9}
	full := KDE(vals, 200)
	d := KDEBetween(vals, 1, 9, 50)
	require.Len(t, d.X, 50)
	assert.Equal(t, 1.0, d.X[0])
	assert.Equal(t, 9.0, d.X[49])
	assert.Equal(t, full.Bandwidth, d.Bandwidth)
	assert.Empty(t, KDEBetween(vals, 3, 3, 50).X)
	assert.Empty(t, KDEBetween(nil, 0, 1, 50).X)
}
