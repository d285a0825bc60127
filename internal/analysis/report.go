package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/table"
)

// Options controls report contents.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset reports.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly analysis of a loaded table.
type Report struct {
	ID       string
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Corr     *CorrMatrix
	Figures  []Figure
}

// Figure is a rendered chart referenced from the report.
type Figure struct {
	Title string
	Path  string
}

// ColumnSummary captures the column kind and statistics.
type ColumnSummary struct {
	Name    string
	Kind    table.Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Stats *ColumnStats
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Text top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// BuildReport summarises t. It never mutates the table.
func BuildReport(name string, t *table.Table, opt Options) *Report {
	rep := &Report{Name: name, Rows: t.Rows()}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	_, rows := t.Records()
	for i := 0; i < len(rows) && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, rows[i])
	}

	for _, c := range t.Columns {
		missing := c.CountMissing()
		s := ColumnSummary{Name: c.Name, Kind: c.Kind, NonNull: c.Len() - missing, Missing: missing}
		switch c.Kind {
		case table.Numeric:
			present := c.Present()
			st := Describe(c.Name, present, missing)
			s.Stats = &st
			s.Unique = countUnique(present)
			if len(present) == 0 && c.Len() > 0 {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s has no values; its statistics are undefined", safeName(c.Name)))
			}
			if opt.Outliers && len(present) >= 8 {
				thr := opt.OutlierThreshold
				if thr <= 0 {
					thr = 3.5
				}
				median, mad := medianMAD(present)
				var cnt int
				maxAbsZ := 0.0
				if mad > 0 {
					for _, v := range present {
						az := math.Abs(0.6745 * (v - median) / mad)
						if az > thr {
							cnt++
						}
						if az > maxAbsZ {
							maxAbsZ = az
						}
					}
				}
				s.OutliersCount = cnt
				s.OutliersMaxAbsZ = maxAbsZ
				s.OutlierThreshold = thr
			}
		default:
			cats := map[string]int{}
			for i, v := range c.Texts {
				if c.Valid[i] {
					cats[v]++
				}
			}
			tops := make([]CategoryCount, 0, len(cats))
			for k, v := range cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > 8 {
				tops = tops[:8]
			}
			s.TopValues = tops
			s.Unique = len(cats)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if opt.Correlations && len(t.NumericColumns()) >= 2 {
		rep.Corr = Correlate(t)
	}
	return rep
}

func countUnique(vals []float64) int {
	seen := make(map[float64]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.ID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.ID))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case table.Numeric:
			if st := c.Stats; st != nil && st.Count > 0 {
				b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, median %.4g, var %.4g, std %.4g",
					st.Min, st.Max, st.Mean, st.Median, st.Variance, st.StdDev))
			}
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		default:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
		b.WriteString("\n[CORRELATION MATRIX]\n")
		b.WriteString(corrTable(r.Corr))
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				b.WriteString(safeVal(clip(val, 80)))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Figures) > 0 {
		b.WriteString("\n[FIGURES]\n")
		for _, f := range r.Figures {
			b.WriteString(fmt.Sprintf("- %s: %s\n", f.Title, f.Path))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func corrTable(m *CorrMatrix) string {
	var b strings.Builder
	b.WriteString("| |")
	for _, c := range m.Columns {
		b.WriteString(" " + safeVal(c) + " |")
	}
	b.WriteString("\n|---|")
	for range m.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, c := range m.Columns {
		b.WriteString("| " + safeVal(c) + " |")
		for j := range m.Columns {
			b.WriteString(" " + FormatCoef(m.Values[i][j]) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCoef prints a coefficient with three decimals, or "NaN" when undefined.
func FormatCoef(r float64) string {
	if math.IsNaN(r) {
		return "NaN"
	}
	return fmt.Sprintf("%.3f", r)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-3]) + "..."
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
