package cmd

import (
	"fmt"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	corrPairs   int
	corrHeatmap bool
	corrOutDir  string
)

var corrCmd = &cobra.Command{
	Use:   "corr <file>",
	Short: "Print the Pearson correlation matrix of numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		outDir := corrOutDir
		if outDir == "" {
			outDir = c.OutputDir
		}
		p, png, err := openTable(args[0], outDir, chartStyle(c), false)
		if err != nil {
			return err
		}
		m, err := p.CorrelationMatrix()
		if err != nil {
			return err
		}
		if len(m.Columns) == 0 {
			return fmt.Errorf("no numeric columns in %s", args[0])
		}

		w := cmd.OutOrStdout()
		tw := tablewriter.NewWriter(w)
		tw.SetAutoFormatHeaders(false)
		tw.SetHeader(append([]string{""}, m.Columns...))
		tw.SetAlignment(tablewriter.ALIGN_RIGHT)
		for i, name := range m.Columns {
			row := []string{name}
			for j := range m.Columns {
				row = append(row, analysis.FormatCoef(m.Values[i][j]))
			}
			tw.Append(row)
		}
		tw.Render()

		if corrPairs > 0 {
			fmt.Fprintln(w, "\nStrongest pairs:")
			for _, pc := range m.TopPairs(corrPairs) {
				fmt.Fprintf(w, "  %s ~ %s: r=%.3f\n", pc.A, pc.B, pc.R)
			}
		}
		if corrHeatmap {
			if err := p.RenderCorrelationHeatmap(); err != nil {
				return err
			}
			for _, f := range png.Files() {
				successf(cmd, "Wrote %s", f)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(corrCmd)
	corrCmd.Flags().IntVar(&corrPairs, "pairs", 0, "also list the N strongest pairs by |r|")
	corrCmd.Flags().BoolVar(&corrHeatmap, "heatmap", false, "write correlation_heatmap.png")
	corrCmd.Flags().StringVar(&corrOutDir, "out-dir", "", "directory for the heatmap (default from config)")
}
