package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ProjectFileName is a per-directory config discovered by walking up from the working
// directory. It takes precedence over the home config.
const ProjectFileName = ".mdpl.yaml"

// Global configuration structure.
type Global struct {
	DefaultStrategy string `mapstructure:"default_strategy" yaml:"default_strategy" validate:"oneof=mean median mode"`
	StrictNormalize bool   `mapstructure:"strict_normalize" yaml:"strict_normalize"`

	// Input/output
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter" validate:"omitempty,len=1"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Charts
	HistogramBins int    `mapstructure:"histogram_bins" yaml:"histogram_bins" validate:"min=1,max=500"`
	ChartColor    string `mapstructure:"chart_color" yaml:"chart_color" validate:"required"`
	ChartWidth    int    `mapstructure:"chart_width" yaml:"chart_width" validate:"min=200,max=8000"`
	ChartHeight   int    `mapstructure:"chart_height" yaml:"chart_height" validate:"min=200,max=8000"`

	// Reports
	SampleRows       int     `mapstructure:"sample_rows" yaml:"sample_rows" validate:"min=0"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold" validate:"gt=0"`
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	return &Global{
		DefaultStrategy:  "mean",
		OutputDir:        "mdpl-out",
		HistogramBins:    10,
		ChartColor:       "blue",
		ChartWidth:       800,
		ChartHeight:      500,
		SampleRows:       5,
		OutlierThreshold: 3.5,
	}
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"default_strategy", "strict_normalize", "delimiter", "output_dir",
	"histogram_bins", "chart_color", "chart_width", "chart_height",
	"sample_rows", "outlier_threshold",
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
	})
	return v
}()

// Validate checks field constraints.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s=%v: failed %q", fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Get returns the value for key formatted for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "default_strategy":
		return c.DefaultStrategy, nil
	case "strict_normalize":
		return strconv.FormatBool(c.StrictNormalize), nil
	case "delimiter":
		return strconv.Quote(c.Delimiter), nil
	case "output_dir":
		return c.OutputDir, nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "chart_color":
		return c.ChartColor, nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val into key and validates the result. On failure c is unchanged.
func (c *Global) Set(key, val string) error {
	next := *c
	switch key {
	case "default_strategy":
		next.DefaultStrategy = strings.ToLower(strings.TrimSpace(val))
	case "strict_normalize":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for strict_normalize: %v", val)
		}
		next.StrictNormalize = b
	case "delimiter":
		if val == `\t` || strings.EqualFold(val, "tab") {
			val = "\t"
		}
		next.Delimiter = val
	case "output_dir":
		next.OutputDir = val
	case "histogram_bins", "chart_width", "chart_height", "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "histogram_bins":
			next.HistogramBins = i
		case "chart_width":
			next.ChartWidth = i
		case "chart_height":
			next.ChartHeight = i
		default:
			next.SampleRows = i
		}
	case "chart_color":
		next.ChartColor = val
	case "outlier_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for outlier_threshold: %v", val)
		}
		next.OutlierThreshold = f
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// DelimiterRune returns the configured CSV delimiter, or 0 to let the reader decide.
func (c *Global) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return 0
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".mdpl"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.mdpl/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile, else .mdpl.yaml up the tree, else ~/.mdpl) > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("MDPL")
	v.AutomaticEnv()

	// Defaults
	d := Defaults()
	v.SetDefault("default_strategy", d.DefaultStrategy)
	v.SetDefault("strict_normalize", d.StrictNormalize)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("histogram_bins", d.HistogramBins)
	v.SetDefault("chart_color", d.ChartColor)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("sample_rows", d.SampleRows)
	v.SetDefault("outlier_threshold", d.OutlierThreshold)

	// Config file
	if cfgFile == "" {
		if p, err := utils.FindUp("", ProjectFileName); err == nil {
			cfgFile = p
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		// a missing explicit file is created by the first Save
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.DefaultStrategy = strings.ToLower(strings.TrimSpace(c.DefaultStrategy))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
