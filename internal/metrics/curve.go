// Package metrics assembles classification curve data (ROC, precision-recall,
// confusion counts) on top of gonum's statistics and integration routines.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch is returned when paired inputs differ in length.
	ErrLengthMismatch = errors.New("metrics: length mismatch")
	// ErrEmptyInput is returned when no samples are supplied.
	ErrEmptyInput = errors.New("metrics: empty input")
	// ErrSingleClass is returned when a binary curve has no positive or no
	// negative samples, leaving TPR or FPR undefined.
	ErrSingleClass = errors.New("metrics: both positive and negative samples are required")
	// ErrNaNScore is returned when a score is NaN.
	ErrNaNScore = errors.New("metrics: NaN score")
)

// ROC holds a receiver operating characteristic curve in decreasing
// threshold order. The first point is always (0, 0) at +Inf.
type ROC struct {
	FPR        []float64
	TPR        []float64
	Thresholds []float64
}

// ROCCurve computes the ROC curve for binary outcomes and their scores.
// A sample is predicted positive when its score is >= the threshold.
func ROCCurve(classes []bool, scores []float64) (ROC, error) {
	y, c, err := sortByScore(classes, scores)
	if err != nil {
		return ROC{}, err
	}
	tpr, fpr, thresh := stat.ROC(nil, y, c, nil)
	return ROC{FPR: fpr, TPR: tpr, Thresholds: thresh}, nil
}

// AUC returns the trapezoidal area under the ROC curve.
func (r ROC) AUC() float64 {
	return AUC(r.FPR, r.TPR)
}

// Select returns the thresholds at which FPR <= fprBelow and TPR >= tprAbove,
// in curve order. The result is never nil, so an empty selection is
// distinguishable from an unset one.
func (r ROC) Select(fprBelow, tprAbove float64) []float64 {
	out := make([]float64, 0, len(r.Thresholds))
	for i, t := range r.Thresholds {
		if r.FPR[i] <= fprBelow && r.TPR[i] >= tprAbove {
			out = append(out, t)
		}
	}
	return out
}

// PR holds a precision-recall curve. Points are ordered by decreasing
// threshold after a leading anchor at recall 0, precision 1 which has no
// threshold, so len(Thresholds) == len(Recall)-1.
type PR struct {
	Precision  []float64
	Recall     []float64
	Thresholds []float64
}

// PRCurve computes the precision-recall curve for binary outcomes and their
// scores, one point per distinct score.
func PRCurve(classes []bool, scores []float64) (PR, error) {
	roc, err := ROCCurve(classes, scores)
	if err != nil {
		return PR{}, err
	}
	nPos, nNeg := countClasses(classes)

	n := len(roc.Thresholds)
	pr := PR{
		Precision:  make([]float64, 0, n),
		Recall:     make([]float64, 0, n),
		Thresholds: make([]float64, 0, n-1),
	}
	pr.Precision = append(pr.Precision, 1)
	pr.Recall = append(pr.Recall, 0)

	// Index 0 is the +Inf cutoff where nothing is predicted positive.
	for i := 1; i < n; i++ {
		tp := math.Round(roc.TPR[i] * float64(nPos))
		fp := math.Round(roc.FPR[i] * float64(nNeg))
		pr.Precision = append(pr.Precision, tp/(tp+fp))
		pr.Recall = append(pr.Recall, roc.TPR[i])
		pr.Thresholds = append(pr.Thresholds, roc.Thresholds[i])
	}
	return pr, nil
}

// AUC returns the trapezoidal area under the precision-recall curve.
func (p PR) AUC() float64 {
	return AUC(p.Recall, p.Precision)
}

// AveragePrecision summarises the curve as the recall-weighted mean of
// precision: sum over n of (R_n - R_n-1) * P_n.
func (p PR) AveragePrecision() float64 {
	var ap float64
	for i := 1; i < len(p.Recall); i++ {
		ap += (p.Recall[i] - p.Recall[i-1]) * p.Precision[i]
	}
	return ap
}

// AveragePrecision computes the average precision score for binary outcomes
// and their scores.
func AveragePrecision(classes []bool, scores []float64) (float64, error) {
	pr, err := PRCurve(classes, scores)
	if err != nil {
		return 0, err
	}
	return pr.AveragePrecision(), nil
}

// AUC integrates y over x with the trapezoidal rule. x must be sorted
// ascending. Fewer than two points have no area.
func AUC(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return integrate.Trapezoidal(x, y)
}

// sortByScore returns the scores sorted ascending with classes permuted to
// match, as stat.ROC requires.
func sortByScore(classes []bool, scores []float64) ([]float64, []bool, error) {
	if len(classes) != len(scores) {
		return nil, nil, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(classes), len(scores))
	}
	if len(scores) == 0 {
		return nil, nil, ErrEmptyInput
	}
	if floats.HasNaN(scores) {
		return nil, nil, ErrNaNScore
	}
	if nPos, nNeg := countClasses(classes); nPos == 0 || nNeg == 0 {
		return nil, nil, fmt.Errorf("%w: %d positive, %d negative", ErrSingleClass, nPos, nNeg)
	}

	y := make([]float64, len(scores))
	copy(y, scores)
	inds := make([]int, len(y))
	floats.Argsort(y, inds)

	c := make([]bool, len(classes))
	for i, j := range inds {
		c[i] = classes[j]
	}
	return y, c, nil
}

func countClasses(classes []bool) (nPos, nNeg int) {
	for _, c := range classes {
		if c {
			nPos++
		} else {
			nNeg++
		}
	}
	return nPos, nNeg
}
