package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/mdpl-cli/internal/table"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// Correlate computes pairwise Pearson correlations across the table's numeric columns,
// using for each pair only the rows where both cells are present. Pairs with fewer than
// two shared rows or no spread are NaN. The diagonal is 1.
func Correlate(t *table.Table) *CorrMatrix {
	cols := t.NumericColumns()
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(cols[a], cols[b])
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

func pearson(x, y *table.Column) float64 {
	xs := make([]float64, 0, x.Len())
	ys := make([]float64, 0, y.Len())
	for i := 0; i < x.Len(); i++ {
		if x.Valid[i] && y.Valid[i] {
			xs = append(xs, x.Nums[i])
			ys = append(ys, y.Nums[i])
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// At returns the coefficient for two named columns.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, name := range m.Columns {
		if name == a {
			ia = i
		}
		if name == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// TopPairs lists off-diagonal pairs ordered by |r|, skipping undefined ones.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(pairs[i].R)
		aj := math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
