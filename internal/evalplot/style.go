package evalplot

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	navy = color.RGBA{R: 0, G: 0, B: 128, A: 255}
	red  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Axis limits for precision-recall plots leave a margin around [0, 1].
const (
	prAxisMin = -0.05
	prAxisMax = 1.05
)

func baselineStyle(l *draw.LineStyle) {
	l.Color = navy
	l.Width = vg.Points(2)
	l.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
}

func modelStyle(l *draw.LineStyle, c color.Color) {
	l.Color = c
	l.Width = vg.Points(2)
}

// diagonal returns the no-skill ROC baseline from (0,0) to (1,1).
func diagonal() (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, err
	}
	baselineStyle(&line.LineStyle)
	return line, nil
}

// horizontal returns a dashed line at y spanning the plot's x range.
func horizontal(y float64) *plotter.Function {
	f := plotter.NewFunction(func(float64) float64 { return y })
	baselineStyle(&f.LineStyle)
	return f
}

// curve converts paired coordinates to a styled line.
func curve(xs, ys []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	modelStyle(&line.LineStyle, c)
	return line, nil
}

func fixPRLimits(p *plot.Plot) {
	p.X.Min, p.X.Max = prAxisMin, prAxisMax
	p.Y.Min, p.Y.Max = prAxisMin, prAxisMax
}

// FormatScore renders a summary statistic to two significant digits,
// keeping a decimal point on whole values ("1.0", not "1").
func FormatScore(v float64) string {
	s := strconv.FormatFloat(v, 'g', 2, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

// classColors spreads n distinct hues around the colour wheel.
func classColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range colors {
		colors[i] = colorful.Hsl(360*float64(i)/float64(n), 0.7, 0.5).Clamped()
	}
	return colors
}

// Blues is a sequential white-to-navy palette blended in CIE L*a*b* space.
type Blues int

// Colors implements palette.Palette.
func (b Blues) Colors() []color.Color {
	n := int(b)
	if n < 2 {
		n = 2
	}
	lo, _ := colorful.Hex("#f7fbff")
	hi, _ := colorful.Hex("#08306b")
	colors := make([]color.Color, n)
	for i := range colors {
		colors[i] = lo.BlendLab(hi, float64(i)/float64(n-1)).Clamped()
	}
	return colors
}
