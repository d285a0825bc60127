package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/mdpl-cli/internal/config"
	"github.com/KaramelBytes/mdpl-cli/internal/parser"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	debug      bool
	delimiter  string
	sheetName  string
	sheetIndex int

	// Loaded configuration
	cfg *cfgpkg.Global

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

var rootCmd = &cobra.Command{
	Use:   "mdpl",
	Short: "mdpl: clean, standardize and summarise tabular data",
	Long: `mdpl loads a CSV, TSV or XLSX table, fills missing numeric values, standardizes
numeric columns, and reports descriptive statistics, correlations and charts.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.mdpl.yaml up the tree, then ~/.mdpl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet-name", "", "XLSX: sheet name to read or write")
	rootCmd.PersistentFlags().IntVar(&sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so `config set` can repair a bad file
		warnf(cmd, "failed to load config: %v", err)
		c = cfgpkg.Defaults()
	}
	cfg = c
	logger.Debug("config loaded", "file", cfgFile, "strategy", cfg.DefaultStrategy, "bins", cfg.HistogramBins)
	return nil
}

func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// parserOptions merges the global I/O flags over the configuration.
func parserOptions() (parser.Options, error) {
	opt := parser.Options{SheetName: sheetName, SheetIndex: sheetIndex}
	if cfg != nil {
		opt.Delimiter = cfg.DelimiterRune()
	}
	d, err := parseDelimiter(delimiter)
	if err != nil {
		return opt, err
	}
	if d != 0 {
		opt.Delimiter = d
	}
	return opt, nil
}

func successf(cmd *cobra.Command, format string, a ...any) {
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ "+format+"\n", a...)
}

func warnf(cmd *cobra.Command, format string, a ...any) {
	color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "⚠ Warning: "+format+"\n", a...)
}
