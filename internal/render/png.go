package render

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"

	"github.com/KaramelBytes/mdpl-cli/internal/analysis"
	"github.com/KaramelBytes/mdpl-cli/internal/utils"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// PNG writes each plot as a PNG file under Dir and remembers what it wrote.
type PNG struct {
	Dir   string
	files []string
}

// NewPNG returns a renderer writing into dir. An empty dir means the working directory.
func NewPNG(dir string) *PNG {
	if dir == "" {
		dir = "."
	}
	return &PNG{Dir: dir}
}

// Files lists the paths written so far, in order.
func (p *PNG) Files() []string { return append([]string(nil), p.files...) }

// Distribution writes <column>_histogram.png and <column>_boxplot.png.
func (p *PNG) Distribution(name string, values []float64, st Style) error {
	st = st.withDefaults()
	graph, err := histogramChart(name, values, st)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	if err := p.write(FileStem(name)+"_histogram.png", buf.Bytes()); err != nil {
		return err
	}

	box, err := boxPlot("Box plot of "+name, values, st)
	if err != nil {
		return fmt.Errorf("render box plot: %w", err)
	}
	return p.write(FileStem(name)+"_boxplot.png", box)
}

// Density writes <column>_density.png.
func (p *PNG) Density(name string, values []float64, st Style) error {
	st = st.withDefaults()
	d := analysis.KDE(values, 200)
	if len(d.X) == 0 {
		return fmt.Errorf("%s: %w", name, ErrNoData)
	}
	fill := st.fill()
	graph := chart.Chart{
		Title:      "Density of " + name,
		Width:      st.Width,
		Height:     st.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		XAxis:      chart.XAxis{Name: name},
		YAxis:      chart.YAxis{Name: "density"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    name,
				XValues: d.X,
				YValues: d.Y,
				Style:   chart.Style{StrokeColor: fill, StrokeWidth: 2, FillColor: fill.WithAlpha(80)},
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render density: %w", err)
	}
	return p.write(FileStem(name)+"_density.png", buf.Bytes())
}

// Heatmap writes correlation_heatmap.png.
func (p *PNG) Heatmap(m *analysis.CorrMatrix, st Style) error {
	if m == nil || len(m.Columns) == 0 {
		return fmt.Errorf("correlation heatmap: %w", ErrNoData)
	}
	b, err := heatmap(m, st.withDefaults())
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	return p.write("correlation_heatmap.png", b)
}

func (p *PNG) write(name string, data []byte) error {
	if err := utils.EnsureDir(p.Dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(p.Dir, name)
	if err := utils.SafeWriteFile(path, data); err != nil {
		return err
	}
	p.files = append(p.files, path)
	return nil
}

// histogramChart draws the binned counts as bars centred on each bin with a KDE curve
// over the same range, scaled by n*binWidth so both read in counts.
func histogramChart(name string, values []float64, st Style) (chart.Chart, error) {
	h := analysis.NewHistogram(values, st.Bins)
	if len(h.Counts) == 0 {
		return chart.Chart{}, ErrNoData
	}
	nbins := len(h.Counts)
	lo, hi := h.Edges[0], h.Edges[nbins]
	binW := (hi - lo) / float64(nbins)
	centers := make([]float64, nbins)
	var n, top float64
	for i, c := range h.Counts {
		centers[i] = lo + binW*(float64(i)+0.5)
		n += c
		top = math.Max(top, c)
	}
	d := analysis.KDEBetween(values, lo, hi, 200)
	curve := make([]float64, len(d.Y))
	for i, y := range d.Y {
		curve[i] = y * n * binW
		top = math.Max(top, curve[i])
	}

	fill := st.fill()
	return chart.Chart{
		Title:      "Distribution of " + name,
		Width:      st.Width,
		Height:     st.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		XAxis:      chart.XAxis{Name: name, Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		YAxis:      chart.YAxis{Name: "count", Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Series: []chart.Series{
			chart.HistogramSeries{
				Name:        "count",
				Style:       chart.Style{FillColor: fill.WithAlpha(160), StrokeColor: fill, StrokeWidth: 1},
				InnerSeries: chart.ContinuousSeries{XValues: centers, YValues: h.Counts},
			},
			chart.ContinuousSeries{
				Name:    "kde",
				XValues: d.X,
				YValues: curve,
				Style:   chart.Style{StrokeColor: fill, StrokeWidth: 2},
			},
		},
	}, nil
}

func rect(r chart.Renderer, x0, y0, x1, y1 int) {
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.LineTo(x0, y0)
	r.Close()
}

func line(r chart.Renderer, x0, y0, x1, y1 int) {
	r.MoveTo(x0, y0)
	r.LineTo(x1, y1)
	r.Stroke()
}

// centeredText draws body with its horizontal center at cx and baseline at y.
func centeredText(r chart.Renderer, body string, cx, y int) {
	tb := r.MeasureText(body)
	r.Text(body, cx-tb.Width()/2, y)
}

func newCanvas(w, h int) (chart.Renderer, error) {
	r, err := chart.PNG(w, h)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)
	r.SetFillColor(chart.ColorWhite)
	rect(r, 0, 0, w, h)
	r.Fill()
	return r, nil
}

func boxPlot(title string, values []float64, st Style) ([]byte, error) {
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, ErrNoData
	}
	q1, q2, q3 := analysis.Quartiles(vals)
	iqr := q3 - q1
	loFence, hiFence := q1-1.5*iqr, q3+1.5*iqr
	lo, hi := math.Inf(1), math.Inf(-1)
	wLo, wHi := q1, q3
	var outliers []float64
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		if v < loFence || v > hiFence {
			outliers = append(outliers, v)
			continue
		}
		wLo, wHi = math.Min(wLo, v), math.Max(wHi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	w, h := st.Width, st.Height/2
	r, err := newCanvas(w, h)
	if err != nil {
		return nil, err
	}
	left, right := 60, w-40
	px := func(v float64) int { return left + int(math.Round((v-lo)/(hi-lo)*float64(right-left))) }
	mid := h / 2
	y0, y1 := mid-h/6, mid+h/6
	axisY := h - 40

	fill := st.fill()
	r.SetStrokeColor(chart.ColorBlack)
	r.SetStrokeWidth(1.5)
	r.SetFillColor(fill.WithAlpha(160))
	rect(r, px(q1), y0, px(q3), y1)
	r.FillStroke()

	r.SetStrokeWidth(2)
	line(r, px(q2), y0, px(q2), y1)
	r.SetStrokeWidth(1.5)
	line(r, px(wLo), mid, px(q1), mid)
	line(r, px(q3), mid, px(wHi), mid)
	line(r, px(wLo), mid-h/12, px(wLo), mid+h/12)
	line(r, px(wHi), mid-h/12, px(wHi), mid+h/12)

	r.SetFillColor(drawing.ColorTransparent)
	for _, v := range outliers {
		r.Circle(3, px(v), mid)
		r.Stroke()
	}

	r.SetStrokeWidth(1)
	line(r, left, axisY, right, axisY)
	r.SetFontColor(chart.ColorBlack)
	r.SetFontSize(9)
	for i := 0; i <= 4; i++ {
		v := lo + (hi-lo)*float64(i)/4
		x := px(v)
		line(r, x, axisY, x, axisY+5)
		centeredText(r, fmt.Sprintf("%.3g", v), x, axisY+18)
	}
	r.SetFontSize(12)
	centeredText(r, title, w/2, 24)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func heatmap(m *analysis.CorrMatrix, st Style) ([]byte, error) {
	n := len(m.Columns)
	w, h := st.Width, st.Height
	const left, top, bottom, right = 140, 50, 70, 90
	cell := (w - left - right) / n
	if c := (h - top - bottom) / n; c < cell {
		cell = c
	}
	if cell < 4 {
		cell = 4
	}
	r, err := newCanvas(w, h)
	if err != nil {
		return nil, err
	}

	r.SetStrokeColor(chart.ColorWhite)
	r.SetStrokeWidth(1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.Values[i][j]
			x0, y0 := left+j*cell, top+i*cell
			r.SetFillColor(Coolwarm(v))
			rect(r, x0, y0, x0+cell, y0+cell)
			r.FillStroke()
			if st.Annotate && cell >= 24 {
				r.SetFontSize(math.Min(10, float64(cell)/4))
				if math.Abs(v) > 0.6 {
					r.SetFontColor(chart.ColorWhite)
				} else {
					r.SetFontColor(chart.ColorBlack)
				}
				centeredText(r, analysis.FormatCoef(v), x0+cell/2, y0+cell/2+4)
			}
		}
	}

	r.SetFontColor(chart.ColorBlack)
	r.SetFontSize(9)
	maxChars := cell / 6
	if maxChars < 3 {
		maxChars = 3
	}
	for i, name := range m.Columns {
		label := truncate(name, 20)
		tb := r.MeasureText(label)
		r.Text(label, left-8-tb.Width(), top+i*cell+cell/2+4)
		centeredText(r, truncate(name, maxChars), left+i*cell+cell/2, top+n*cell+16)
	}

	// color bar, +1 at the top
	barX := left + n*cell + 24
	barH := n * cell
	const steps = 50
	r.SetStrokeWidth(0)
	for s := 0; s < steps; s++ {
		v := 1 - 2*(float64(s)+0.5)/steps
		y0 := top + s*barH/steps
		y1 := top + (s+1)*barH/steps
		r.SetFillColor(Coolwarm(v))
		r.SetStrokeColor(Coolwarm(v))
		rect(r, barX, y0, barX+16, y1)
		r.FillStroke()
	}
	for _, tick := range []struct {
		label string
		y     int
	}{{"1", top + 4}, {"0", top + barH/2 + 4}, {"-1", top + barH + 4}} {
		r.Text(tick.label, barX+22, tick.y)
	}

	r.SetFontSize(12)
	centeredText(r, "Correlation Heatmap", w/2, 28)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	if n <= 1 {
		return string(rs[:n])
	}
	return string(rs[:n-1]) + "…"
}
