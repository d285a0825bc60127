package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	impStrategy string
	impOutput   string
	impManifest string
)

var imputeCmd = &cobra.Command{
	Use:   "impute <file>",
	Short: "Fill missing numeric cells with the column mean, median or mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		c := current()
		strategy := impStrategy
		if strategy == "" {
			strategy = c.DefaultStrategy
		}
		p, _, err := openTable(in, c.OutputDir, chartStyle(c), c.StrictNormalize)
		if err != nil {
			return err
		}
		before := missingCounts(p.Table())
		if err := p.ImputeMissing(strategy); err != nil {
			return err
		}
		after := missingCounts(p.Table())

		filled := 0
		for name, n := range before {
			filled += n - after[name]
		}
		for _, col := range p.Table().NumericColumns() {
			if after[col.Name] > 0 {
				warnf(cmd, "column %s has no values; %d cells left missing", col.Name, after[col.Name])
			}
		}

		out := impOutput
		if out == "" {
			out = siblingPath(in, "imputed")
		}
		if err := p.Save(out); err != nil {
			return err
		}
		successf(cmd, "Filled %d missing cells in %d columns (%s) and wrote %s", filled, len(before)-len(after), strategy, out)
		if impManifest != "" {
			m, err := recordTable(impManifest, in, out, p.Table(), "impute:"+strings.ToLower(strings.TrimSpace(strategy)))
			if err != nil {
				return err
			}
			successf(cmd, "Recorded %s in %s", filepath.Base(out), m.Path())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imputeCmd)
	imputeCmd.Flags().StringVarP(&impStrategy, "strategy", "s", "", "imputation strategy: mean | median | mode (default from config)")
	imputeCmd.Flags().StringVarP(&impOutput, "output", "o", "", "output path (default <file>.imputed.<ext>)")
	imputeCmd.Flags().StringVar(&impManifest, "manifest", "", "record the written table in <dir>/manifest.json")
}
