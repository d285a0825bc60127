// Package pipeline holds the table processor: one in-memory table plus the cleaning,
// statistics and plotting operations that act on it.
package pipeline

import (
	"math"
	"path/filepath"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
	"github.com/KaramelBytes/mdpl-cli/internal/parser"
	"github.com/KaramelBytes/mdpl-cli/internal/render"
	"github.com/KaramelBytes/mdpl-cli/internal/table"
)

// Options configures a Processor.
type Options struct {
	Parser parser.Options
	Style  render.Style
	// StrictNormalize makes Normalize fail on zero-spread columns instead of zeroing them.
	StrictNormalize bool
}

// Processor owns one table. It is not safe for concurrent use.
type Processor struct {
	table    *table.Table
	path     string
	renderer render.Renderer
	opt      Options
}

// New returns a processor with an empty table. A nil renderer writes PNGs to the working
// directory.
func New(r render.Renderer, opt Options) *Processor {
	if r == nil {
		r = render.NewPNG(".")
	}
	if opt.Style == (render.Style{}) {
		opt.Style = render.DefaultStyle()
	}
	return &Processor{table: table.New(), renderer: r, opt: opt}
}

// Table returns the current table. Mutating it mutates the processor's state.
func (p *Processor) Table() *table.Table { return p.table }

// Loaded reports whether a load has succeeded.
func (p *Processor) Loaded() bool { return p.path != "" }

// Path is the source of the current table, empty before the first load.
func (p *Processor) Path() string { return p.path }

// Load reads the file at path and replaces the current table with it. On failure the
// current table is kept.
func (p *Processor) Load(path string) (*table.Table, error) {
	t, err := parser.ReadFile(path, p.opt.Parser)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	p.table = t
	p.path = path
	return t, nil
}

// Save writes the table to path with a header row and no index column.
func (p *Processor) Save(path string) error {
	if err := parser.WriteFile(path, p.table, p.opt.Parser); err != nil {
		return &SaveError{Path: path, Err: err}
	}
	return nil
}

// ImputeMissing fills missing cells of every numeric column with the strategy's statistic
// over that column's present values. Columns with no present values stay missing.
func (p *Processor) ImputeMissing(strategy string) error {
	s, err := analysis.ParseStrategy(strategy)
	if err != nil {
		return &InvalidStrategyError{Strategy: strategy}
	}
	for _, c := range p.table.NumericColumns() {
		if c.CountMissing() == 0 {
			continue
		}
		fill := analysis.FillValue(s, c.Present())
		if math.IsNaN(fill) {
			continue
		}
		for i := range c.Valid {
			if !c.Valid[i] {
				c.SetNumber(i, fill)
			}
		}
	}
	return nil
}

// Normalize rescales every numeric column in place to zero mean and unit population
// standard deviation. Missing cells stay missing. Zero-spread columns become zeros, or
// fail with DegenerateColumnError before anything is written when StrictNormalize is set.
func (p *Processor) Normalize() error {
	cols := p.table.NumericColumns()
	if p.opt.StrictNormalize {
		for _, c := range cols {
			if analysis.ZeroSpread(c.Present()) {
				return &DegenerateColumnError{Column: c.Name}
			}
		}
	}
	for _, c := range cols {
		analysis.Standardize(c.Nums, c.Valid)
	}
	return nil
}

// Describe computes summary statistics for one numeric column.
func (p *Processor) Describe(column string) (analysis.ColumnStats, error) {
	c, err := p.numeric(column)
	if err != nil {
		return analysis.ColumnStats{}, err
	}
	return analysis.Describe(c.Name, c.Present(), c.CountMissing()), nil
}

// CorrelationMatrix computes Pearson coefficients across numeric columns.
func (p *Processor) CorrelationMatrix() (*analysis.CorrMatrix, error) {
	return analysis.Correlate(p.table), nil
}

// RenderDistribution asks the renderer for a histogram and box plot of column.
func (p *Processor) RenderDistribution(column string) error {
	c, err := p.numeric(column)
	if err != nil {
		return err
	}
	return p.renderer.Distribution(c.Name, c.Present(), p.opt.Style)
}

// RenderDensity asks the renderer for a kernel density plot of column.
func (p *Processor) RenderDensity(column string) error {
	c, err := p.numeric(column)
	if err != nil {
		return err
	}
	return p.renderer.Density(c.Name, c.Present(), p.opt.Style)
}

// RenderCorrelationHeatmap asks the renderer for an annotated heatmap of the correlation
// matrix.
func (p *Processor) RenderCorrelationHeatmap() error {
	m, err := p.CorrelationMatrix()
	if err != nil {
		return err
	}
	return p.renderer.Heatmap(m, p.opt.Style)
}

// Report summarises the current table.
func (p *Processor) Report(opt analysis.Options) *analysis.Report {
	name := ""
	if p.path != "" {
		name = filepath.Base(p.path)
	}
	return analysis.BuildReport(name, p.table, opt)
}

func (p *Processor) numeric(column string) (*table.Column, error) {
	c, ok := p.table.Column(column)
	if !ok {
		return nil, &UnknownColumnError{Column: column}
	}
	if c.Kind != table.Numeric {
		return nil, &NonNumericColumnError{Column: column}
	}
	return c, nil
}
