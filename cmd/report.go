package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
	"github.com/KaramelBytes/mdpl-cli/internal/artifacts"
	"github.com/KaramelBytes/mdpl-cli/internal/render"
	"github.com/KaramelBytes/mdpl-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repOutDir     string
	repPlots      bool
	repImpute     string
	repSampleRows int
	repNoCorr     bool
	repOutliers   bool
	repOutlierThr float64
	repQuiet      bool
)

var reportCmd = &cobra.Command{
	Use:   "report <files...>",
	Short: "Write a Markdown report, optional charts and a manifest for each table",
	Long: `report summarises each input (globs allowed) into <out-dir>/<name>/report.md,
with schema, descriptive statistics, correlations and sample rows. With --plots it
also writes a histogram, box plot and density chart per numeric column plus a
correlation heatmap. Every run records what it wrote in manifest.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c := current()
		outRoot := repOutDir
		if outRoot == "" {
			outRoot = c.OutputDir
		}

		opt := analysis.DefaultOptions()
		opt.SampleRows = c.SampleRows
		opt.OutlierThreshold = c.OutlierThreshold
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = repSampleRows
		}
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = repOutliers
		}
		if repOutlierThr > 0 {
			opt.OutlierThreshold = repOutlierThr
		}
		opt.Correlations = !repNoCorr

		used := map[string]bool{}
		total := len(files)
		for i, path := range files {
			if !repQuiet {
				fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			dir := uniqueDir(outRoot, path, used)
			if err := writeReport(cmd, path, dir, opt); err != nil {
				return err
			}
		}
		return nil
	},
}

func writeReport(cmd *cobra.Command, path, dir string, opt analysis.Options) error {
	c := current()
	p, png, err := openTable(path, dir, chartStyle(c), c.StrictNormalize)
	if err != nil {
		return err
	}
	m := artifacts.NewManifest(path, dir)
	m.SetShape(p.Table().Rows(), len(p.Table().Columns))
	if repImpute != "" {
		if err := p.ImputeMissing(repImpute); err != nil {
			return err
		}
		m.RecordStep("impute:" + strings.ToLower(strings.TrimSpace(repImpute)))
	}

	if repPlots {
		for _, col := range p.Table().NumericColumns() {
			for _, draw := range []func(string) error{p.RenderDistribution, p.RenderDensity} {
				err := draw(col.Name)
				if errors.Is(err, render.ErrNoData) {
					logger.Debug("skipping chart", "column", col.Name, "reason", err)
					continue
				}
				if err != nil {
					return err
				}
			}
		}
		if len(p.Table().NumericColumns()) >= 2 {
			if err := p.RenderCorrelationHeatmap(); err != nil {
				return err
			}
		}
		m.RecordStep("plots")
	}

	rep := p.Report(opt)
	rep.ID = m.ID
	charts := png.Files()
	for _, f := range charts {
		rep.Figures = append(rep.Figures, analysis.Figure{Title: figureTitle(f), Path: filepath.Base(f)})
	}

	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	mdPath := filepath.Join(dir, "report.md")
	if err := utils.SafeWriteFile(mdPath, []byte(rep.Markdown())); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if _, err := m.Add(mdPath, artifacts.KindReport, "Dataset report"); err != nil {
		return err
	}
	for i, f := range charts {
		if _, err := m.Add(f, artifacts.KindChart, rep.Figures[i].Title); err != nil {
			return err
		}
	}
	if err := m.Save(); err != nil {
		return err
	}
	for _, w := range rep.Warnings {
		warnf(cmd, "%s: %s", filepath.Base(path), w)
	}
	if !repQuiet {
		successf(cmd, "Wrote %s (%d charts, manifest %s)", mdPath, len(charts), m.ID)
		for _, a := range m.List() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-7s %s\n", a.Kind, filepath.Join(m.RootDir(), filepath.FromSlash(a.Path)))
		}
	}
	return nil
}

// figureTitle turns age_histogram.png into "age histogram".
func figureTitle(path string) string {
	return strings.ReplaceAll(strings.TrimSuffix(filepath.Base(path), ".png"), "_", " ")
}

// expandInputs resolves globs and literal paths, dropping duplicates, in sorted order.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniqueDir picks <root>/<stem>, adding __2, __3... when two inputs share a stem.
func uniqueDir(root, path string, used map[string]bool) string {
	base := filepath.Base(path)
	stem := render.FileStem(strings.TrimSuffix(base, filepath.Ext(base)))
	name := stem
	for idx := 2; used[name]; idx++ {
		name = fmt.Sprintf("%s__%d", stem, idx)
	}
	used[name] = true
	return filepath.Join(root, name)
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&repOutDir, "out-dir", "", "output directory (default from config)")
	reportCmd.Flags().BoolVar(&repPlots, "plots", false, "render charts for every numeric column")
	reportCmd.Flags().StringVar(&repImpute, "impute", "", "fill missing values before summarising: mean | median | mode")
	reportCmd.Flags().IntVar(&repSampleRows, "sample-rows", 5, "number of sample rows to include (overrides config)")
	reportCmd.Flags().BoolVar(&repNoCorr, "no-correlations", false, "skip the correlation sections")
	reportCmd.Flags().BoolVar(&repOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	reportCmd.Flags().Float64Var(&repOutlierThr, "outlier-threshold", 0, "robust |z| threshold for outliers (overrides config)")
	reportCmd.Flags().BoolVarP(&repQuiet, "quiet", "q", false, "suppress progress output")
}
