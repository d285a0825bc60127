package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"mean": StrategyMean, " Median ": StrategyMedian, "MODE": StrategyMode} {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseStrategy("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestFillValue(t *testing.T) {
	vals := []float64{20, 40, 40, 10}
	assert.InDelta(t, 27.5, FillValue(StrategyMean, vals), 1e-12)
	assert.InDelta(t, 30, FillValue(StrategyMedian, vals), 1e-12)
	assert.Equal(t, 40.0, FillValue(StrategyMode, vals))
	assert.True(t, math.IsNaN(FillValue(StrategyMean, nil)))
	assert.True(t, math.IsNaN(FillValue(StrategyMedian, nil)))
	assert.True(t, math.IsNaN(FillValue(StrategyMode, nil)))
}

func TestModeTieGoesToFirstSeen(t *testing.T) {
	assert.Equal(t, 3.0, Mode([]float64{3, 1, 1, 3, 2}))
	assert.Equal(t, 5.0, Mode([]float64{5, 4, 6}))
	assert.Equal(t, 1.0, Mode([]float64{2, 1, 1, 2, 1}))
}

func TestDescribe(t *testing.T) {
	cs := Describe("age", []float64{20, 30, 40}, 1)
	assert.Equal(t, "age", cs.Column)
	assert.Equal(t, 3, cs.Count)
	assert.Equal(t, 1, cs.Missing)
	assert.InDelta(t, 30, cs.Mean, 1e-12)
	assert.InDelta(t, 30, cs.Median, 1e-12)
	assert.InDelta(t, 100, cs.Variance, 1e-9)
	assert.InDelta(t, 10, cs.StdDev, 1e-9)
	assert.Equal(t, 20.0, cs.Min)
	assert.Equal(t, 40.0, cs.Max)
	assert.Contains(t, cs.String(), "Mean Column: 30")

	one := Describe("x", []float64{7}, 0)
	assert.Equal(t, 7.0, one.Mean)
	assert.True(t, math.IsNaN(one.Variance))
	assert.True(t, math.IsNaN(one.StdDev))

	none := Describe("x", nil, 3)
	assert.Equal(t, 0, none.Count)
	assert.True(t, math.IsNaN(none.Mean))
	assert.True(t, math.IsNaN(none.Min))
}

func TestStandardize(t *testing.T) {
	vals := []float64{1, 2, math.NaN(), 3}
	valid := []bool{true, true, false, true}
	mean, std := Standardize(vals, valid)
	assert.InDelta(t, 2, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), std, 1e-12)
	assert.True(t, math.IsNaN(vals[2]))
	m, s := stat.PopMeanStdDev([]float64{vals[0], vals[1], vals[3]}, nil)
	assert.InDelta(t, 0, m, 1e-12)
	assert.InDelta(t, 1, s, 1e-12)
}

func TestStandardizeZeroSpread(t *testing.T) {
	vals := []float64{0.1, 0.1, 0.1}
	_, std := Standardize(vals, []bool{true, true, true})
	assert.Equal(t, 0.0, std)
	assert.Equal(t, []float64{0, 0, 0}, vals)
}

func TestZeroSpread(t *testing.T) {
	assert.True(t, ZeroSpread([]float64{0.1, 0.1, 0.1}))
	assert.True(t, ZeroSpread([]float64{5}))
	assert.False(t, ZeroSpread([]float64{1e-20, 2e-20}))
	assert.False(t, ZeroSpread(nil))
}

func TestQuartiles(t *testing.T) {
	q1, q2, q3 := Quartiles([]float64{4, 1, 3, 2})
	assert.LessOrEqual(t, q1, q2)
	assert.LessOrEqual(t, q2, q3)
	assert.GreaterOrEqual(t, q1, 1.0)
	assert.LessOrEqual(t, q3, 4.0)
	a, _, _ := Quartiles(nil)
	assert.True(t, math.IsNaN(a))
}
