package metrics

import (
	"cmp"
	"fmt"
	"slices"
)

// SortedClasses returns the distinct labels in ascending order.
func SortedClasses[L cmp.Ordered](labels ...[]L) []L {
	var out []L
	for _, l := range labels {
		out = append(out, l...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Binarize marks each label as positive when it equals the given class
// (one-vs-rest).
func Binarize[L cmp.Ordered](labels []L, positive L) []bool {
	out := make([]bool, len(labels))
	for i, l := range labels {
		out[i] = l == positive
	}
	return out
}

// Prevalence returns the fraction of labels equal to the positive class.
func Prevalence[L cmp.Ordered](labels []L, positive L) float64 {
	if len(labels) == 0 {
		return 0
	}
	n := 0
	for _, l := range labels {
		if l == positive {
			n++
		}
	}
	return float64(n) / float64(len(labels))
}

// FindThreshold returns the decision thresholds at which the ROC curve of
// scores against the positive class has FPR <= fprBelow and TPR >= tprAbove.
// Thresholds come from the curve's own grid; nothing is interpolated. An
// empty result means no threshold satisfies both bounds.
func FindThreshold[L cmp.Ordered](yTrue []L, scores []float64, positive L, fprBelow, tprAbove float64) ([]float64, error) {
	roc, err := ROCCurve(Binarize(yTrue, positive), scores)
	if err != nil {
		return nil, fmt.Errorf("roc curve: %w", err)
	}
	return roc.Select(fprBelow, tprAbove), nil
}
