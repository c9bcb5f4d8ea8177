package evalplot

import (
	"cmp"
	"fmt"

	"github.com/banshee-data/classeval/internal/metrics"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// AUC annotation anchor, in data coordinates of the unit ROC square.
const (
	aucLabelX = 0.43
	aucLabelY = 0.025
)

// PlotROC draws the ROC curve of scores against the positive class together
// with the no-skill diagonal, and annotates the area under the curve.
// If p is nil a new plot is created; otherwise p is drawn on and returned.
func PlotROC[L cmp.Ordered](yTrue []L, scores []float64, positive L, p *plot.Plot) (*plot.Plot, error) {
	roc, err := metrics.ROCCurve(metrics.Binarize(yTrue, positive), scores)
	if err != nil {
		return nil, fmt.Errorf("roc curve: %w", err)
	}

	base, err := diagonal()
	if err != nil {
		return nil, err
	}
	model, err := curve(roc.FPR, roc.TPR, red)
	if err != nil {
		return nil, fmt.Errorf("model curve: %w", err)
	}
	auc := roc.AUC()
	note, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: aucLabelX, Y: aucLabelY}},
		Labels: []string{aucAnnotation(auc)},
	})
	if err != nil {
		return nil, fmt.Errorf("auc annotation: %w", err)
	}

	if p == nil {
		p = plot.New()
	}
	p.Add(base, model, note)
	p.Legend.Add("baseline", base)
	p.Legend.Add("model", model)
	p.Legend.Top = false
	p.Legend.Left = false
	p.Title.Text = "ROC curve"
	setROCAxisLabels(p)

	diagf("roc: %d points, auc=%.4f", len(roc.Thresholds), auc)
	return p, nil
}

// PlotMultiClassROC draws one one-vs-rest ROC curve per class, in ascending
// class order, over a shared diagonal baseline. Each class's scores are
// looked up by label in scores.
// If p is nil a new plot is created; otherwise p is drawn on and returned.
func PlotMultiClassROC[L cmp.Ordered](yTrue []L, scores metrics.ClassScores[L], p *plot.Plot) (*plot.Plot, error) {
	classes := metrics.SortedClasses(yTrue)
	if len(classes) == 0 {
		return nil, metrics.ErrEmptyInput
	}

	base, err := diagonal()
	if err != nil {
		return nil, err
	}

	// Every curve is built before p is touched so a failing class leaves a
	// borrowed plot unchanged.
	colors := classColors(len(classes))
	lines := make([]*plotter.Line, len(classes))
	names := make([]string, len(classes))
	for i, class := range classes {
		col, err := scores.Column(class, len(yTrue))
		if err != nil {
			return nil, err
		}
		roc, err := metrics.ROCCurve(metrics.Binarize(yTrue, class), col)
		if err != nil {
			return nil, fmt.Errorf("class %v: roc curve: %w", class, err)
		}
		lines[i], err = curve(roc.FPR, roc.TPR, colors[i])
		if err != nil {
			return nil, fmt.Errorf("class %v: %w", class, err)
		}
		auc := roc.AUC()
		names[i] = fmt.Sprintf("class %v; AUC: %s", class, FormatScore(auc))
		tracef("multi-class roc: class %v auc=%.4f", class, auc)
	}

	if p == nil {
		p = plot.New()
	}
	p.Add(base)
	p.Legend.Add("baseline", base)
	for i, line := range lines {
		p.Add(line)
		p.Legend.Add(names[i], line)
	}

	p.Title.Text = "Multi-class ROC curve"
	setROCAxisLabels(p)
	diagf("multi-class roc: %d classes", len(classes))
	return p, nil
}

func setROCAxisLabels(p *plot.Plot) {
	p.X.Label.Text = "False Positive Rate (FPR)"
	p.Y.Label.Text = "True Positive Rate (TPR)"
}

func aucAnnotation(auc float64) string {
	return "AUC: " + FormatScore(auc)
}
