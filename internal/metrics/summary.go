package metrics

import (
	"cmp"
	"fmt"
)

// ClassSummary holds the one-vs-rest curves and summary statistics for a
// single class.
type ClassSummary[L cmp.Ordered] struct {
	Class            L
	Prevalence       float64
	ROC              ROC
	PR               PR
	ROCAUC           float64
	PRAUC            float64
	AveragePrecision float64
}

// SummarizeClass computes the one-vs-rest curves of scores against class.
func SummarizeClass[L cmp.Ordered](yTrue []L, scores []float64, class L) (ClassSummary[L], error) {
	actual := Binarize(yTrue, class)
	roc, err := ROCCurve(actual, scores)
	if err != nil {
		return ClassSummary[L]{}, fmt.Errorf("class %v: roc curve: %w", class, err)
	}
	pr, err := PRCurve(actual, scores)
	if err != nil {
		return ClassSummary[L]{}, fmt.Errorf("class %v: precision-recall curve: %w", class, err)
	}
	return ClassSummary[L]{
		Class:            class,
		Prevalence:       Prevalence(yTrue, class),
		ROC:              roc,
		PR:               pr,
		ROCAUC:           roc.AUC(),
		PRAUC:            pr.AUC(),
		AveragePrecision: pr.AveragePrecision(),
	}, nil
}

// Evaluation gathers everything computed for one labelled prediction set.
type Evaluation[L cmp.Ordered] struct {
	Classes []L
	// Confusion is nil when no predicted labels were supplied.
	Confusion *Confusion[L]
	// PerClass follows Classes order. It is empty when no scores were
	// supplied.
	PerClass []ClassSummary[L]
}

// Evaluate builds an Evaluation. yPred and scores are each optional (nil).
// With scores, every class in yTrue must have a column.
func Evaluate[L cmp.Ordered](yTrue, yPred []L, scores ClassScores[L]) (*Evaluation[L], error) {
	if len(yTrue) == 0 {
		return nil, ErrEmptyInput
	}
	ev := &Evaluation[L]{Classes: SortedClasses(yTrue)}

	if yPred != nil {
		conf, err := ConfusionMatrix(yTrue, yPred)
		if err != nil {
			return nil, fmt.Errorf("confusion matrix: %w", err)
		}
		ev.Confusion = conf
	}

	if scores == nil {
		return ev, nil
	}
	for _, class := range ev.Classes {
		col, err := scores.Column(class, len(yTrue))
		if err != nil {
			return nil, err
		}
		s, err := SummarizeClass(yTrue, col, class)
		if err != nil {
			return nil, err
		}
		ev.PerClass = append(ev.PerClass, s)
	}
	return ev, nil
}

// Class returns the summary for class, if present.
func (e *Evaluation[L]) Class(class L) (ClassSummary[L], bool) {
	for _, s := range e.PerClass {
		if s.Class == class {
			return s, true
		}
	}
	return ClassSummary[L]{}, false
}

// Relabel returns a copy of e with every class passed through name. Class
// order is kept as is, so numeric classes stay in numeric order once they
// are named as text. Curves and counts are shared with e.
func Relabel[L, M cmp.Ordered](e *Evaluation[L], name func(L) M) *Evaluation[M] {
	out := &Evaluation[M]{Classes: make([]M, len(e.Classes))}
	for i, c := range e.Classes {
		out.Classes[i] = name(c)
	}
	if e.Confusion != nil {
		labels := make([]M, len(e.Confusion.Labels))
		for i, l := range e.Confusion.Labels {
			labels[i] = name(l)
		}
		out.Confusion = &Confusion[M]{Labels: labels, Counts: e.Confusion.Counts}
	}
	for _, s := range e.PerClass {
		out.PerClass = append(out.PerClass, ClassSummary[M]{
			Class:            name(s.Class),
			Prevalence:       s.Prevalence,
			ROC:              s.ROC,
			PR:               s.PR,
			ROCAUC:           s.ROCAUC,
			PRAUC:            s.PRAUC,
			AveragePrecision: s.AveragePrecision,
		})
	}
	return out
}
