package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	normImpute   string
	normStrict   bool
	normOutput   string
	normManifest string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Standardize numeric columns to zero mean and unit variance",
	Long: `Standardize rewrites every numeric column as (value - mean) / std, using the
population standard deviation of the column's present values. Missing cells stay
missing unless --impute fills them first. Constant columns become zeros, or fail
with --strict.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		c := current()
		strict := c.StrictNormalize
		if cmd.Flags().Changed("strict") {
			strict = normStrict
		}
		p, _, err := openTable(in, c.OutputDir, chartStyle(c), strict)
		if err != nil {
			return err
		}
		if normImpute != "" {
			if err := p.ImputeMissing(normImpute); err != nil {
				return err
			}
			logger.Debug("imputed before normalizing", "strategy", normImpute)
		}
		if err := p.Normalize(); err != nil {
			return err
		}
		out := normOutput
		if out == "" {
			out = siblingPath(in, "normalized")
		}
		if err := p.Save(out); err != nil {
			return err
		}
		successf(cmd, "Standardized %d numeric columns and wrote %s", len(p.Table().NumericColumns()), out)
		if normManifest != "" {
			var steps []string
			if normImpute != "" {
				steps = append(steps, "impute:"+strings.ToLower(strings.TrimSpace(normImpute)))
			}
			m, err := recordTable(normManifest, in, out, p.Table(), append(steps, "normalize")...)
			if err != nil {
				return err
			}
			successf(cmd, "Recorded %s in %s", filepath.Base(out), m.Path())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVar(&normImpute, "impute", "", "fill missing values first: mean | median | mode")
	normalizeCmd.Flags().BoolVar(&normStrict, "strict", false, "fail on constant columns instead of writing zeros (overrides config)")
	normalizeCmd.Flags().StringVarP(&normOutput, "output", "o", "", "output path (default <file>.normalized.<ext>)")
	normalizeCmd.Flags().StringVar(&normManifest, "manifest", "", "record the written table in <dir>/manifest.json")
}
