package cmd

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/artifacts"
	cfgpkg "github.com/KaramelBytes/mdpl-cli/internal/config"
	"github.com/KaramelBytes/mdpl-cli/internal/pipeline"
	"github.com/KaramelBytes/mdpl-cli/internal/render"
	"github.com/KaramelBytes/mdpl-cli/internal/table"
)

func current() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}

func chartStyle(c *cfgpkg.Global) render.Style {
	return render.Style{
		Bins:     c.HistogramBins,
		Color:    c.ChartColor,
		Width:    c.ChartWidth,
		Height:   c.ChartHeight,
		Annotate: true,
	}
}

// openTable builds a processor that renders into outDir and loads path into it.
func openTable(path, outDir string, style render.Style, strict bool) (*pipeline.Processor, *render.PNG, error) {
	popt, err := parserOptions()
	if err != nil {
		return nil, nil, err
	}
	png := render.NewPNG(outDir)
	p := pipeline.New(png, pipeline.Options{Parser: popt, Style: style, StrictNormalize: strict})
	t, err := p.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("table loaded", "path", path, "rows", t.Rows(), "columns", len(t.Columns))
	return p, png, nil
}

// siblingPath derives an output path next to in: data.csv -> data.<tag>.csv
func siblingPath(in, tag string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "." + tag + ext
}

func missingCounts(t *table.Table) map[string]int {
	out := make(map[string]int)
	for _, c := range t.NumericColumns() {
		if n := c.CountMissing(); n > 0 {
			out[c.Name] = n
		}
	}
	return out
}

// recordTable adds a written table to the manifest in dir, starting a new manifest when
// none exists yet.
func recordTable(dir, source, out string, t *table.Table, steps ...string) (*artifacts.Manifest, error) {
	m, err := artifacts.LoadManifest(dir)
	if errors.Is(err, fs.ErrNotExist) {
		m = artifacts.NewManifest(source, dir)
	} else if err != nil {
		return nil, err
	}
	m.SetShape(t.Rows(), len(t.Columns))
	for _, s := range steps {
		m.RecordStep(s)
	}
	if _, err := m.Add(out, artifacts.KindTable, filepath.Base(out)); err != nil {
		return nil, err
	}
	if err := m.Save(); err != nil {
		return nil, err
	}
	return m, nil
}
