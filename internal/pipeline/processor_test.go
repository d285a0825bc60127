package pipeline

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
	"github.com/KaramelBytes/mdpl-cli/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

type call struct {
	kind   string
	name   string
	values []float64
	style  render.Style
}

type fakeRenderer struct {
	calls []call
	err   error
}

func (f *fakeRenderer) Distribution(name string, values []float64, st render.Style) error {
	f.calls = append(f.calls, call{"distribution", name, values, st})
	return f.err
}

func (f *fakeRenderer) Density(name string, values []float64, st render.Style) error {
	f.calls = append(f.calls, call{"density", name, values, st})
	return f.err
}

func (f *fakeRenderer) Heatmap(m *analysis.CorrMatrix, st render.Style) error {
	f.calls = append(f.calls, call{kind: "heatmap", name: "corr", style: st})
	return f.err
}

const patientsCSV = "patient,age,bmi,group\n" +
	"p1,20,21.5,a\n" +
	"p2,,23.0,b\n" +
	"p3,40,,a\n" +
	"p4,40,25.5,\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func loaded(t *testing.T, body string) (*Processor, *fakeRenderer) {
	t.Helper()
	fr := &fakeRenderer{}
	p := New(fr, Options{})
	_, err := p.Load(writeCSV(t, body))
	require.NoError(t, err)
	return p, fr
}

func nums(t *testing.T, p *Processor, name string) []float64 {
	t.Helper()
	c, ok := p.Table().Column(name)
	require.True(t, ok, name)
	return c.Nums
}

func TestLoad(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	assert.True(t, p.Loaded())
	assert.Equal(t, 4, p.Table().Rows())
	assert.Equal(t, []string{"patient", "age", "bmi", "group"}, p.Table().Names())
	assert.Equal(t, "in.csv", filepath.Base(p.Path()))
}

func TestLoadFailureKeepsTable(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	_, err := p.Load(filepath.Join(t.TempDir(), "missing.csv"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Path, "missing.csv")
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, 4, p.Table().Rows())

	_, err = p.Load(writeCSV(t, ""))
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 4, p.Table().Rows())
}

func TestImputeMeanFillsWithPreImputationMean(t *testing.T) {
	for _, body := range []string{"age\n20\nNaN\n40\n", "age\n20\n\"\"\n40\n"} {
		p, _ := loaded(t, body)
		require.Equal(t, 3, p.Table().Rows())
		require.NoError(t, p.ImputeMissing("mean"))
		assert.Equal(t, []float64{20, 30, 40}, nums(t, p, "age"))
		c, _ := p.Table().Column("age")
		assert.Equal(t, 0, c.CountMissing())
	}
}

func TestSaveLoadSingleColumnKeepsMissingRow(t *testing.T) {
	p, _ := loaded(t, "age\n20\nNaN\n40\n")
	out := filepath.Join(t.TempDir(), "age.csv")
	require.NoError(t, p.Save(out))

	q := New(&fakeRenderer{}, Options{})
	_, err := q.Load(out)
	require.NoError(t, err)
	require.Equal(t, 3, q.Table().Rows())
	c, _ := q.Table().Column("age")
	assert.True(t, c.IsMissing(1))

	require.NoError(t, q.ImputeMissing("mean"))
	assert.Equal(t, []float64{20, 30, 40}, nums(t, q, "age"))
}

func TestImputeStrategies(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	require.NoError(t, p.ImputeMissing("median"))
	assert.Equal(t, []float64{20, 40, 40, 40}, nums(t, p, "age"))
	assert.Equal(t, 23.0, nums(t, p, "bmi")[2])

	p, _ = loaded(t, patientsCSV)
	require.NoError(t, p.ImputeMissing("Mode"))
	assert.Equal(t, 40.0, nums(t, p, "age")[1])
	assert.Equal(t, 21.5, nums(t, p, "bmi")[2], "tie goes to the first value seen")

	g, _ := p.Table().Column("group")
	assert.True(t, g.IsMissing(3), "text columns are never imputed")
}

func TestImputeIsIdempotent(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	require.NoError(t, p.ImputeMissing("mean"))
	first := append([]float64(nil), nums(t, p, "bmi")...)
	require.NoError(t, p.ImputeMissing("mean"))
	assert.Equal(t, first, nums(t, p, "bmi"))
}

func TestImputeAllMissingColumnStaysMissing(t *testing.T) {
	p, _ := loaded(t, "a,b\n1,\n2,\n")
	require.NoError(t, p.ImputeMissing("mean"))
	b, _ := p.Table().Column("b")
	assert.Equal(t, 2, b.CountMissing())
}

func TestImputeInvalidStrategyLeavesTable(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	_, before := p.Table().Records()
	err := p.ImputeMissing("bogus")
	var ise *InvalidStrategyError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "bogus", ise.Strategy)
	assert.True(t, errors.Is(err, analysis.ErrUnknownStrategy))
	_, after := p.Table().Records()
	assert.Equal(t, before, after)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	require.NoError(t, p.ImputeMissing("mean"))
	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, p.Save(out))

	q := New(&fakeRenderer{}, Options{})
	_, err := q.Load(out)
	require.NoError(t, err)
	assert.Equal(t, p.Table().Names(), q.Table().Names())
	assert.Equal(t, p.Table().Rows(), q.Table().Rows())
	for _, name := range []string{"age", "bmi"} {
		assert.Equal(t, nums(t, p, name), nums(t, q, name), name)
	}
	_, wantRows := p.Table().Records()
	_, gotRows := q.Table().Records()
	assert.Equal(t, wantRows, gotRows)
}

func TestSaveUnwritable(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	err := p.Save(filepath.Join(t.TempDir(), "no", "such", "dir", "out.csv"))
	var se *SaveError
	require.ErrorAs(t, err, &se)
}

func TestNormalize(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	require.NoError(t, p.Normalize())
	for _, name := range []string{"age", "bmi"} {
		c, _ := p.Table().Column(name)
		present := c.Present()
		mean, std := stat.PopMeanStdDev(present, nil)
		assert.InDelta(t, 0, mean, 1e-9, name)
		assert.InDelta(t, 1, std, 1e-9, name)
		assert.Equal(t, 1, c.CountMissing(), "missing cells stay missing")
	}
}

func TestNormalizeUsesCurrentData(t *testing.T) {
	p, _ := loaded(t, "x\n1\n2\n3\n")
	require.NoError(t, p.Normalize())
	require.NoError(t, p.Normalize())
	assert.InDeltaSlice(t, []float64{-math.Sqrt(1.5), 0, math.Sqrt(1.5)}, nums(t, p, "x"), 1e-9)
}

func TestNormalizeZeroSpread(t *testing.T) {
	p, _ := loaded(t, "x,y\n0.1,1\n0.1,2\n0.1,3\n")
	require.NoError(t, p.Normalize())
	assert.Equal(t, []float64{0, 0, 0}, nums(t, p, "x"))

	fr := &fakeRenderer{}
	strict := New(fr, Options{StrictNormalize: true})
	_, err := strict.Load(writeCSV(t, "x,y\n0.1,1\n0.1,2\n0.1,3\n"))
	require.NoError(t, err)
	err = strict.Normalize()
	var de *DegenerateColumnError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "x", de.Column)
	assert.Equal(t, []float64{1, 2, 3}, nums(t, strict, "y"), "nothing written on failure")
}

func TestDescribe(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	cs, err := p.Describe("age")
	require.NoError(t, err)
	assert.Equal(t, 3, cs.Count)
	assert.Equal(t, 1, cs.Missing)
	assert.InDelta(t, 100.0/3, cs.Mean, 1e-9)
	assert.Equal(t, 40.0, cs.Median)
	assert.InDelta(t, 133.333333, cs.Variance, 1e-5)

	_, err = p.Describe("nonexistent_column")
	var ue *UnknownColumnError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "nonexistent_column", ue.Column)

	_, err = p.Describe("group")
	var ne *NonNumericColumnError
	require.ErrorAs(t, err, &ne)
}

func TestCorrelationMatrix(t *testing.T) {
	p, _ := loaded(t, "a,b,c,label\n1,1,3,x\n2,2,1,y\n3,3,2,z\n")
	m, err := p.CorrelationMatrix()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, m.Columns)
	r, _ := m.At("a", "b")
	assert.InDelta(t, 1.0, r, 1e-12)
	for i := range m.Columns {
		assert.Equal(t, 1.0, m.Values[i][i])
		for j := range m.Columns {
			if !math.IsNaN(m.Values[i][j]) {
				assert.Equal(t, m.Values[i][j], m.Values[j][i])
			}
		}
	}
}

func TestEmptyProcessor(t *testing.T) {
	p := New(&fakeRenderer{}, Options{})
	assert.False(t, p.Loaded())
	m, err := p.CorrelationMatrix()
	require.NoError(t, err)
	assert.Empty(t, m.Columns)
	require.NoError(t, p.ImputeMissing("mean"))
	require.NoError(t, p.Normalize())
	_, err = p.Describe("age")
	var ue *UnknownColumnError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 0, p.Report(analysis.DefaultOptions()).Rows)
}

func TestRenderCalls(t *testing.T) {
	p, fr := loaded(t, patientsCSV)
	require.NoError(t, p.RenderDistribution("age"))
	require.NoError(t, p.RenderDensity("bmi"))
	require.NoError(t, p.RenderCorrelationHeatmap())
	require.Len(t, fr.calls, 3)

	assert.Equal(t, "distribution", fr.calls[0].kind)
	assert.Equal(t, []float64{20, 40, 40}, fr.calls[0].values)
	assert.Equal(t, render.DefaultStyle(), fr.calls[0].style)
	assert.Equal(t, "density", fr.calls[1].kind)
	assert.Equal(t, "bmi", fr.calls[1].name)
	assert.Equal(t, "heatmap", fr.calls[2].kind)

	var ue *UnknownColumnError
	require.ErrorAs(t, p.RenderDistribution("nope"), &ue)
	require.ErrorAs(t, p.RenderDensity("nope"), &ue)
	assert.Len(t, fr.calls, 3)
}

func TestRenderErrorPropagates(t *testing.T) {
	p, fr := loaded(t, patientsCSV)
	fr.err = render.ErrNoData
	assert.True(t, errors.Is(p.RenderDistribution("age"), render.ErrNoData))
}

func TestRenderWithPNG(t *testing.T) {
	dir := t.TempDir()
	png := render.NewPNG(dir)
	p := New(png, Options{Style: render.Style{Bins: 5}})
	_, err := p.Load(writeCSV(t, patientsCSV))
	require.NoError(t, err)
	require.NoError(t, p.RenderDistribution("age"))
	require.NoError(t, p.RenderCorrelationHeatmap())
	assert.Len(t, png.Files(), 3)
}

func TestReport(t *testing.T) {
	p, _ := loaded(t, patientsCSV)
	rep := p.Report(analysis.DefaultOptions())
	assert.Equal(t, "in.csv", rep.Name)
	assert.Equal(t, 4, rep.Rows)
	assert.Contains(t, rep.Markdown(), "- age: numeric (non-null 3, missing 25.0%)")
}
