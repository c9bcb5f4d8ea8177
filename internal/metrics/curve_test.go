package metrics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestROCCurve_PerfectRanking(t *testing.T) {
	roc, err := ROCCurve([]bool{true, false, true, false}, []float64{0.9, 0.2, 0.6, 0.4})
	require.NoError(t, err)

	require.Len(t, roc.Thresholds, 5)
	assert.True(t, math.IsInf(roc.Thresholds[0], 1), "first threshold should be +Inf, got %v", roc.Thresholds[0])
	if diff := cmp.Diff([]float64{0.9, 0.6, 0.4, 0.2}, roc.Thresholds[1:], approx); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0, 0, 0.5, 1}, roc.FPR, approx); diff != "" {
		t.Errorf("FPR mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0.5, 1, 1, 1}, roc.TPR, approx); diff != "" {
		t.Errorf("TPR mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1.0, roc.AUC(), 1e-12)
}

func TestROCCurve_DoesNotMutateInput(t *testing.T) {
	classes := []bool{true, false, true, false}
	scores := []float64{0.9, 0.2, 0.6, 0.4}
	_, err := ROCCurve(classes, scores)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.9, 0.2, 0.6, 0.4}, scores)
	assert.Equal(t, []bool{true, false, true, false}, classes)
}

func TestROCCurve_TiedScoresShareThreshold(t *testing.T) {
	roc, err := ROCCurve([]bool{true, false, true, false}, []float64{0.5, 0.5, 0.5, 0.1})
	require.NoError(t, err)

	// +Inf, 0.5, 0.1
	require.Len(t, roc.Thresholds, 3)
	assert.InDelta(t, 1.0, roc.TPR[1], 1e-12)
	assert.InDelta(t, 0.5, roc.FPR[1], 1e-12)
}

func TestROCCurve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		classes []bool
		scores  []float64
		want    error
	}{
		{"length mismatch", []bool{true, false}, []float64{0.1}, ErrLengthMismatch},
		{"empty", nil, nil, ErrEmptyInput},
		{"no negatives", []bool{true, true}, []float64{0.1, 0.2}, ErrSingleClass},
		{"no positives", []bool{false, false}, []float64{0.1, 0.2}, ErrSingleClass},
		{"nan score", []bool{true, false}, []float64{math.NaN(), 0.2}, ErrNaNScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ROCCurve(tt.classes, tt.scores)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPRCurve(t *testing.T) {
	pr, err := PRCurve([]bool{true, false, true, false}, []float64{0.8, 0.9, 0.3, 0.1})
	require.NoError(t, err)

	if diff := cmp.Diff([]float64{1, 0, 0.5, 2.0 / 3.0, 0.5}, pr.Precision, approx); diff != "" {
		t.Errorf("precision mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0, 0.5, 1, 1}, pr.Recall, approx); diff != "" {
		t.Errorf("recall mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.9, 0.8, 0.3, 0.1}, pr.Thresholds); diff != "" {
		t.Errorf("thresholds mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, pr.Thresholds, len(pr.Recall)-1)

	// 0.5*0.5 + 0.5*(2/3)
	assert.InDelta(t, 0.25+1.0/3.0, pr.AveragePrecision(), 1e-12)
}

func TestAveragePrecision_PerfectRanking(t *testing.T) {
	ap, err := AveragePrecision([]bool{true, false, true, false}, []float64{0.9, 0.2, 0.6, 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ap, 1e-12)

	pr, err := PRCurve([]bool{true, false, true, false}, []float64{0.9, 0.2, 0.6, 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, pr.AUC(), 1e-12)
}

func TestAveragePrecision_Error(t *testing.T) {
	_, err := AveragePrecision([]bool{true}, []float64{0.1, 0.2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestAUC(t *testing.T) {
	assert.InDelta(t, 0.5, AUC([]float64{0, 1}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, 1.0, AUC([]float64{0, 0.5, 1}, []float64{1, 1, 1}), 1e-12)
	assert.Zero(t, AUC([]float64{0}, []float64{1}))
	assert.Zero(t, AUC([]float64{0, 1}, []float64{1}))
}

func TestROCSelect_MatchesConstraints(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	classes := make([]bool, 200)
	scores := make([]float64, 200)
	for i := range classes {
		classes[i] = rng.IntN(2) == 1
		scores[i] = rng.Float64()
		if classes[i] {
			scores[i] = math.Min(1, scores[i]+0.3)
		}
	}
	roc, err := ROCCurve(classes, scores)
	require.NoError(t, err)

	for _, bounds := range [][2]float64{{0.1, 0.5}, {0.3, 0.8}, {0, 0}, {1, 1}, {0.05, 0.99}} {
		fprBelow, tprAbove := bounds[0], bounds[1]
		selected := roc.Select(fprBelow, tprAbove)

		chosen := make(map[float64]bool, len(selected))
		for _, th := range selected {
			chosen[th] = true
		}
		for i, th := range roc.Thresholds {
			ok := roc.FPR[i] <= fprBelow && roc.TPR[i] >= tprAbove
			assert.Equal(t, ok, chosen[th], "threshold %v fpr=%v tpr=%v bounds=%v", th, roc.FPR[i], roc.TPR[i], bounds)
		}
	}
}
