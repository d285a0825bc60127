package cmd

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	descColumns []string
	descPlain   bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Print mean, median, variance and standard deviation of numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		p, _, err := openTable(args[0], c.OutputDir, chartStyle(c), false)
		if err != nil {
			return err
		}
		cols := descColumns
		if len(cols) == 0 {
			for _, col := range p.Table().NumericColumns() {
				cols = append(cols, col.Name)
			}
		}
		if len(cols) == 0 {
			return fmt.Errorf("no numeric columns in %s", args[0])
		}
		stats := make([]analysis.ColumnStats, 0, len(cols))
		for _, name := range cols {
			cs, err := p.Describe(name)
			if err != nil {
				return err
			}
			stats = append(stats, cs)
		}

		w := cmd.OutOrStdout()
		if descPlain {
			for _, cs := range stats {
				fmt.Fprintf(w, "%s: %s\n", cs.Column, cs)
			}
			return nil
		}
		tw := tablewriter.NewWriter(w)
		tw.SetAutoFormatHeaders(false)
		tw.SetHeader([]string{"column", "count", "missing", "mean", "median", "variance", "std", "min", "max"})
		tw.SetAlignment(tablewriter.ALIGN_RIGHT)
		for _, cs := range stats {
			tw.Append([]string{
				cs.Column,
				fmt.Sprint(cs.Count),
				fmt.Sprint(cs.Missing),
				num(cs.Mean), num(cs.Median), num(cs.Variance), num(cs.StdDev), num(cs.Min), num(cs.Max),
			})
		}
		tw.Render()
		return nil
	},
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringArrayVarP(&descColumns, "column", "c", nil, "column to describe (repeatable; default all numeric columns)")
	describeCmd.Flags().BoolVar(&descPlain, "plain", false, "print one summary line per column instead of a table")
}
