package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram bins values into nbins equal-width bins spanning [min, max]; the last bin is
// closed on the right. Edges has nbins+1 entries.
type Histogram struct {
	Edges  []float64
	Counts []float64
}

// NewHistogram builds a histogram. A zero-spread sample is centred in a unit-wide range.
func NewHistogram(values []float64, nbins int) Histogram {
	if nbins <= 0 {
		nbins = 10
	}
	values = finite(values)
	if len(values) == 0 {
		return Histogram{}
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, nbins+1), lo, hi)
	// stat.Histogram treats the upper edge as exclusive; nudge it so max lands in the last bin.
	bounds := append([]float64(nil), edges...)
	bounds[nbins] = math.Nextafter(math.Max(hi, edges[nbins]), math.Inf(1))
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, bounds, sorted, nil)
	return Histogram{Edges: edges, Counts: counts}
}

// Density is a Gaussian kernel density estimate sampled on an even grid.
type Density struct {
	X         []float64
	Y         []float64
	Bandwidth float64
}

// KDE estimates the density of values with a Gaussian kernel and Scott's rule bandwidth,
// sampled at points positions spanning three bandwidths beyond the data range.
func KDE(values []float64, points int) Density {
	values = finite(values)
	if len(values) == 0 {
		return Density{}
	}
	bw := scottBandwidth(values)
	return kdeGrid(values, bw, floats.Min(values)-3*bw, floats.Max(values)+3*bw, points)
}

// KDEBetween is KDE sampled only on [lo, hi], for overlaying a histogram of the same data.
func KDEBetween(values []float64, lo, hi float64, points int) Density {
	values = finite(values)
	if len(values) == 0 || !(hi > lo) {
		return Density{}
	}
	return kdeGrid(values, scottBandwidth(values), lo, hi, points)
}

func scottBandwidth(values []float64) float64 {
	sd := 0.0
	if len(values) > 1 {
		sd = stat.StdDev(values, nil)
	}
	bw := sd * math.Pow(float64(len(values)), -0.2)
	if bw == 0 || math.IsNaN(bw) {
		return 1
	}
	return bw
}

func kdeGrid(values []float64, bw, lo, hi float64, points int) Density {
	if points < 2 {
		points = 200
	}
	xs := floats.Span(make([]float64, points), lo, hi)
	ys := make([]float64, points)
	norm := 1 / (float64(len(values)) * bw * math.Sqrt(2*math.Pi))
	for i, x := range xs {
		var sum float64
		for _, v := range values {
			z := (x - v) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		ys[i] = sum * norm
	}
	return Density{X: xs, Y: ys, Bandwidth: bw}
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
