package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Strategy selects the summary statistic used to fill missing numeric cells.
type Strategy string

const (
	StrategyMean   Strategy = "mean"
	StrategyMedian Strategy = "median"
	StrategyMode   Strategy = "mode"
)

// Strategies lists the recognised imputation strategies.
var Strategies = []Strategy{StrategyMean, StrategyMedian, StrategyMode}

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names.
var ErrUnknownStrategy = errors.New("unknown imputation strategy")

// ParseStrategy maps a name such as "Median" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyMean:
		return StrategyMean, nil
	case StrategyMedian:
		return StrategyMedian, nil
	case StrategyMode:
		return StrategyMode, nil
	}
	return "", fmt.Errorf("%w: %q (use mean, median or mode)", ErrUnknownStrategy, s)
}

// FillValue computes the strategy's statistic over present values. It is NaN when
// there are no values.
func FillValue(s Strategy, present []float64) float64 {
	if len(present) == 0 {
		return math.NaN()
	}
	switch s {
	case StrategyMean:
		return stat.Mean(present, nil)
	case StrategyMedian:
		m, err := stats.Median(present)
		if err != nil {
			return math.NaN()
		}
		return m
	case StrategyMode:
		return Mode(present)
	}
	return math.NaN()
}

// Mode returns the most frequent value; among equally frequent values the one seen
// first wins.
func Mode(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	counts := make(map[float64]int, len(values))
	top := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > top {
			top = counts[v]
		}
	}
	for _, v := range values {
		if counts[v] == top {
			return v
		}
	}
	return math.NaN()
}

// ColumnStats holds descriptive statistics for one numeric column. Variance and StdDev
// use the sample (n-1) denominator.
type ColumnStats struct {
	Column   string
	Count    int
	Missing  int
	Mean     float64
	Median   float64
	Variance float64
	StdDev   float64
	Min      float64
	Max      float64
}

// Describe summarises present values. Undefined statistics are NaN.
func Describe(name string, present []float64, missing int) ColumnStats {
	cs := ColumnStats{
		Column:   name,
		Count:    len(present),
		Missing:  missing,
		Mean:     math.NaN(),
		Median:   math.NaN(),
		Variance: math.NaN(),
		StdDev:   math.NaN(),
		Min:      math.NaN(),
		Max:      math.NaN(),
	}
	if len(present) == 0 {
		return cs
	}
	cs.Mean, cs.Variance = stat.MeanVariance(present, nil)
	if len(present) < 2 {
		cs.Variance = math.NaN()
	}
	cs.StdDev = math.Sqrt(cs.Variance)
	cs.Median, _ = stats.Median(present)
	cs.Min = floats.Min(present)
	cs.Max = floats.Max(present)
	return cs
}

// String matches the one-line summary printed for a column.
func (cs ColumnStats) String() string {
	return fmt.Sprintf("Mean Column: %g, Median Column: %g, Variance Column: %g, Std Dev Column: %g",
		cs.Mean, cs.Median, cs.Variance, cs.StdDev)
}

// Standardize rescales the present entries of values in place to zero mean and unit
// population standard deviation. A zero-spread column becomes all zeros and reports a
// std of 0. It returns the mean and standard deviation used.
func Standardize(values []float64, valid []bool) (mean, std float64) {
	present := make([]float64, 0, len(values))
	for i, v := range values {
		if valid[i] {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, std = stat.PopMeanStdDev(present, nil)
	if flat(mean, std) {
		std = 0
	}
	for i := range values {
		if !valid[i] {
			continue
		}
		if std == 0 {
			values[i] = 0
			continue
		}
		values[i] = (values[i] - mean) / std
	}
	return mean, std
}

// ZeroSpread reports whether present values are constant, allowing for the rounding
// error left in the mean of a constant sample.
func ZeroSpread(present []float64) bool {
	if len(present) == 0 {
		return false
	}
	return flat(stat.PopMeanStdDev(present, nil))
}

func flat(mean, std float64) bool {
	return std == 0 || std <= 1e-12*math.Abs(mean)
}

// Quartiles returns the 25th, 50th and 75th percentiles by linear interpolation.
func Quartiles(values []float64) (q1, q2, q3 float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	return stat.Quantile(0.25, stat.LinInterp, s, nil),
		stat.Quantile(0.5, stat.LinInterp, s, nil),
		stat.Quantile(0.75, stat.LinInterp, s, nil)
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	median, _ = stats.Median(vals)
	mad, _ = stats.MedianAbsoluteDeviationPopulation(vals)
	return
}
