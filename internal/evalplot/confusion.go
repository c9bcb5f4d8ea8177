package evalplot

import (
	"cmp"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/classeval/internal/metrics"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrTooFewClassNames is returned when there are more classes than display
// names to label them with.
var ErrTooFewClassNames = errors.New("evalplot: fewer class names than classes")

const defaultConfusionTitle = "Confusion Matrix"

// HeatmapOption adjusts the confusion heatmap before it is added to the plot.
type HeatmapOption func(*plotter.HeatMap)

// WithPalette replaces the default blue palette.
func WithPalette(p palette.Palette) HeatmapOption {
	return func(h *plotter.HeatMap) { h.Palette = p }
}

// WithRange fixes the value range mapped onto the palette.
func WithRange(min, max float64) HeatmapOption {
	return func(h *plotter.HeatMap) {
		h.Min = min
		h.Max = max
	}
}

// WithRasterized draws the heatmap as a single image rather than one
// polygon per cell.
func WithRasterized(r bool) HeatmapOption {
	return func(h *plotter.HeatMap) { h.Rasterized = r }
}

// ConfusionPlot is a confusion heatmap plot with its colour bar. The bar is
// drawn to the right of the plot by Draw and WriterTo.
type ConfusionPlot struct {
	*plot.Plot
	ColorBar plot.Legend
}

// Draw draws the colour bar at the right edge of c and the plot in the
// remaining space.
func (cp *ConfusionPlot) Draw(c draw.Canvas) {
	bar := cp.ColorBar
	bar.Top = true
	bar.YOffs = -cp.Title.TextStyle.FontExtents().Height
	r := bar.Rectangle(c)
	bar.Draw(c)
	cp.Plot.Draw(draw.Crop(c, 0, -(r.Max.X-r.Min.X)-vg.Millimeter, 0, 0))
}

// WriterTo returns an io.WriterTo that writes the plot and its colour bar
// in the given format.
func (cp *ConfusionPlot) WriterTo(w, h vg.Length, format string) (io.WriterTo, error) {
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return nil, err
	}
	cp.Draw(draw.New(c))
	return c, nil
}

// Save writes the plot and its colour bar to file, choosing the format from
// the file extension.
func (cp *ConfusionPlot) Save(w, h vg.Length, file string) error {
	wt, err := cp.WriterTo(w, h, strings.ToLower(strings.TrimPrefix(filepath.Ext(file), ".")))
	if err != nil {
		return err
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ConfusionMatrixVisual draws the confusion matrix of yTrue against yPred as
// an annotated heatmap with a colour bar. Rows are model predictions and
// columns are actual classes, ordered by sorted label and named from
// classNames in that order.
// If p is nil a new plot is created; otherwise p is drawn on and returned
// as the ConfusionPlot's Plot.
// An empty title selects "Confusion Matrix".
func ConfusionMatrixVisual[L cmp.Ordered](yTrue, yPred []L, classNames []string, p *plot.Plot, title string, opts ...HeatmapOption) (*ConfusionPlot, error) {
	conf, err := metrics.ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if conf.Size() > len(classNames) {
		return nil, fmt.Errorf("%w: %d classes, %d names", ErrTooFewClassNames, conf.Size(), len(classNames))
	}
	if len(classNames) > conf.Size() {
		opsf("confusion matrix: ignoring %d unused class names", len(classNames)-conf.Size())
	}

	layers, err := newConfusionLayers(conf.Transposed(), classNames[:conf.Size()], opts...)
	if err != nil {
		return nil, err
	}

	if p == nil {
		p = plot.New()
	}
	if title == "" {
		title = defaultConfusionTitle
	}
	p.Title.Text = title
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Model Prediction"
	p.Add(layers.heat, layers.cells)
	p.X.Tick.Marker = plot.ConstantTicks(layers.xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(layers.yTicks)

	n := float64(conf.Size())
	p.X.Min, p.X.Max = 0, n
	p.Y.Min, p.Y.Max = 0, n
	p.X.Padding, p.Y.Padding = 0, 0

	diagf("confusion matrix: %d classes, %d samples", conf.Size(), len(yTrue))
	return &ConfusionPlot{Plot: p, ColorBar: colorBar(layers.heat)}, nil
}

// colorBar builds a legend with one swatch per palette colour, highest
// value first.
func colorBar(h *plotter.HeatMap) plot.Legend {
	l := plot.NewLegend()
	thumbs := plotter.PaletteThumbnailers(h.Palette)
	labels := colorBarLabels(h.Min, h.Max, len(thumbs))
	for i := len(thumbs) - 1; i >= 0; i-- {
		l.Add(labels[i], thumbs[i])
	}
	return l
}

// colorBarLabels spreads n labels evenly from min to max.
func colorBarLabels(min, max float64, n int) []string {
	labels := make([]string, n)
	for i := range labels {
		v := min
		if n > 1 {
			v = min + (max-min)*float64(i)/float64(n-1)
		}
		labels[i] = strconv.FormatFloat(v, 'g', 3, 64)
	}
	return labels
}

type confusionLayers struct {
	heat   *plotter.HeatMap
	cells  *plotter.Labels
	xTicks []plot.Tick
	yTicks []plot.Tick
}

// newConfusionLayers lays out an n x n matrix with unit cells spanning
// [0, n] on both axes. Matrix row 0 is drawn at the top.
func newConfusionLayers(m mat.Matrix, names []string, opts ...HeatmapOption) (*confusionLayers, error) {
	n, _ := m.Dims()
	g := confusionGrid{m: m, n: n}

	heat := plotter.NewHeatMap(g, Blues(9))
	for _, opt := range opts {
		opt(heat)
	}
	if heat.Min == heat.Max {
		heat.Max = heat.Min + 1
	}

	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xys = append(xys, plotter.XY{X: g.X(c), Y: g.Y(r)})
			labels = append(labels, strconv.Itoa(int(g.Z(c, r))))
		}
	}
	cells, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("cell labels: %w", err)
	}
	mid := (heat.Min + heat.Max) / 2
	for i := range cells.TextStyle {
		cells.TextStyle[i].XAlign = text.XCenter
		cells.TextStyle[i].YAlign = text.YCenter
		if g.Z(i%n, i/n) > mid {
			cells.TextStyle[i].Color = color.White
		}
	}

	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i := 0; i < n; i++ {
		xTicks[i] = plot.Tick{Value: g.X(i), Label: names[i]}
		yTicks[i] = plot.Tick{Value: float64(n-1-i) + 0.5, Label: names[i]}
	}

	return &confusionLayers{heat: heat, cells: cells, xTicks: xTicks, yTicks: yTicks}, nil
}

// confusionGrid adapts a square matrix to plotter.GridXYZ. Grid row r holds
// matrix row n-1-r so that the first matrix row lands at the top of the plot.
type confusionGrid struct {
	m mat.Matrix
	n int
}

func (g confusionGrid) Dims() (c, r int)   { return g.n, g.n }
func (g confusionGrid) Z(c, r int) float64 { return g.m.At(g.n-1-r, c) }
func (g confusionGrid) X(c int) float64    { return float64(c) + 0.5 }
func (g confusionGrid) Y(r int) float64    { return float64(r) + 0.5 }
