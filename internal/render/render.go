package render

import (
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Renderer draws plots for a processor. Implementations decide where output goes.
type Renderer interface {
	// Distribution draws a histogram of values plus a box plot.
	Distribution(name string, values []float64, st Style) error
	// Density draws a kernel density estimate of values.
	Density(name string, values []float64, st Style) error
	// Heatmap draws the correlation matrix on a diverging color scale.
	Heatmap(m *analysis.CorrMatrix, st Style) error
}

// ErrNoData is returned when there is nothing finite to draw.
var ErrNoData = errors.New("no data to plot")

// Style carries drawing hints.
type Style struct {
	Bins     int
	Color    string
	Width    int
	Height   int
	Annotate bool
}

// DefaultStyle is ten blue bins with annotated heatmap cells.
func DefaultStyle() Style {
	return Style{Bins: 10, Color: "blue", Width: 800, Height: 500, Annotate: true}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.Bins <= 0 {
		s.Bins = d.Bins
	}
	if s.Color == "" {
		s.Color = d.Color
	}
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Height <= 0 {
		s.Height = d.Height
	}
	return s
}

// fill resolves the style color; "blue" maps to the chart theme blue.
func (s Style) fill() drawing.Color {
	if strings.EqualFold(s.Color, "blue") {
		return chart.ColorBlue
	}
	if strings.HasPrefix(s.Color, "#") && !hexColor.MatchString(s.Color) {
		return chart.ColorBlue
	}
	c := drawing.ParseColor(s.Color)
	if c.IsZero() {
		return chart.ColorBlue
	}
	return c
}

var (
	coolLow  = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	coolMid  = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	coolHigh = drawing.Color{R: 180, G: 4, B: 38, A: 255}
	nanColor = drawing.Color{R: 160, G: 160, B: 160, A: 255}
)

// Coolwarm maps r in [-1, 1] onto a blue-grey-red diverging scale. NaN maps to grey.
func Coolwarm(r float64) drawing.Color {
	if math.IsNaN(r) {
		return nanColor
	}
	r = math.Max(-1, math.Min(1, r))
	if r < 0 {
		return lerp(coolMid, coolLow, -r)
	}
	return lerp(coolMid, coolHigh, r)
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t)) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

var hexColor = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileStem turns a column name into a file-name-safe stem.
func FileStem(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_"), "_.")
	if s == "" {
		return "column"
	}
	return s
}
