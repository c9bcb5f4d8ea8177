package evalplot

import (
	"cmp"
	"fmt"
	"image/color"

	"github.com/banshee-data/classeval/internal/metrics"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// PlotPRCurve draws the precision-recall curve of scores against the
// positive class on a new plot. The dashed baseline is the positive-class
// prevalence; the title carries average precision and area under the curve.
func PlotPRCurve[L cmp.Ordered](yTrue []L, scores []float64, positive L) (*plot.Plot, error) {
	p := plot.New()
	s, model, err := drawPR(p, yTrue, scores, positive, red)
	if err != nil {
		return nil, err
	}
	p.Legend.Add("model", model)
	p.Title.Text = fmt.Sprintf("Precision-recall curve\n AP: %s | AUC: %s",
		FormatScore(s.AveragePrecision), FormatScore(s.PRAUC))
	diagf("precision-recall: prevalence=%.4f ap=%.4f auc=%.4f", s.Prevalence, s.AveragePrecision, s.PRAUC)
	return p, nil
}

// PlotMultiClassPRCurve draws one precision-recall subplot per class, in
// ascending class order, laid out three to a row. Trailing cells of the last
// row that have no class are left nil in the grid.
func PlotMultiClassPRCurve[L cmp.Ordered](yTrue []L, scores metrics.ClassScores[L]) (*Grid, error) {
	classes := metrics.SortedClasses(yTrue)
	if len(classes) == 0 {
		return nil, metrics.ErrEmptyInput
	}

	g := NewGrid(len(classes))
	colors := classColors(len(classes))
	for i, class := range classes {
		col, err := scores.Column(class, len(yTrue))
		if err != nil {
			return nil, err
		}
		p := g.Plots[i]
		s, model, err := drawPR(p, yTrue, col, class, colors[i])
		if err != nil {
			return nil, fmt.Errorf("class %v: %w", class, err)
		}
		p.Legend.Add(fmt.Sprintf("AUC: %s; AP : %s", FormatScore(s.PRAUC), FormatScore(s.AveragePrecision)), model)
		p.Title.Text = fmt.Sprintf("Precision-recall curve: class %v", class)
		tracef("multi-class precision-recall: class %v ap=%.4f auc=%.4f", class, s.AveragePrecision, s.PRAUC)
	}

	diagf("multi-class precision-recall: %d classes in %dx%d grid, %d empty cells",
		len(classes), g.Rows, g.Cols, g.Deleted())
	return g, nil
}

// drawPR adds the prevalence baseline and the model curve for one class to
// p and fixes the axis limits. The caller names the curve in the legend.
func drawPR[L cmp.Ordered](p *plot.Plot, yTrue []L, scores []float64, positive L, c color.Color) (metrics.ClassSummary[L], *plotter.Line, error) {
	s, err := metrics.SummarizeClass(yTrue, scores, positive)
	if err != nil {
		return s, nil, err
	}

	base := horizontal(s.Prevalence)
	model, err := curve(s.PR.Recall, s.PR.Precision, c)
	if err != nil {
		return s, nil, fmt.Errorf("model curve: %w", err)
	}
	p.Add(base, model)
	p.Legend.Add("baseline", base)
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	fixPRLimits(p)
	return s, model, nil
}
