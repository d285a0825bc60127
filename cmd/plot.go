package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/render"
	"github.com/spf13/cobra"
)

var (
	plotKind    string
	plotColumns []string
	plotOutDir  string
	plotBins    int
	plotColor   string
)

var plotCmd = &cobra.Command{
	Use:   "plot <file>",
	Short: "Render distribution, density or correlation heatmap charts as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		style := chartStyle(c)
		if plotBins > 0 {
			style.Bins = plotBins
		}
		if plotColor != "" {
			style.Color = plotColor
		}
		outDir := plotOutDir
		if outDir == "" {
			outDir = c.OutputDir
		}
		p, png, err := openTable(args[0], outDir, style, false)
		if err != nil {
			return err
		}

		kind := strings.ToLower(strings.TrimSpace(plotKind))
		switch kind {
		case "heatmap":
			if err := p.RenderCorrelationHeatmap(); err != nil {
				return err
			}
		case "distribution", "density":
			cols := plotColumns
			if len(cols) == 0 {
				for _, col := range p.Table().NumericColumns() {
					cols = append(cols, col.Name)
				}
			}
			for _, name := range cols {
				var err error
				if kind == "distribution" {
					err = p.RenderDistribution(name)
				} else {
					err = p.RenderDensity(name)
				}
				if errors.Is(err, render.ErrNoData) && len(plotColumns) == 0 {
					warnf(cmd, "skipping %s: no values", name)
					continue
				}
				if err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unsupported --kind: %s (use distribution, density or heatmap)", plotKind)
		}
		for _, f := range png.Files() {
			successf(cmd, "Wrote %s", f)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringVarP(&plotKind, "kind", "k", "distribution", "chart kind: distribution | density | heatmap")
	plotCmd.Flags().StringArrayVarP(&plotColumns, "column", "c", nil, "column to plot (repeatable; default all numeric columns)")
	plotCmd.Flags().StringVar(&plotOutDir, "out-dir", "", "output directory (default from config)")
	plotCmd.Flags().IntVar(&plotBins, "bins", 0, "histogram bins (overrides config)")
	plotCmd.Flags().StringVar(&plotColor, "color", "", "fill color name or #rrggbb (overrides config)")
}
