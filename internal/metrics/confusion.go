package metrics

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Confusion is a confusion matrix. Rows are true classes and columns are
// predicted classes, both indexed by Labels.
type Confusion[L cmp.Ordered] struct {
	Labels []L
	Counts *mat.Dense
}

// ConfusionMatrix counts (true, predicted) label pairs over the sorted union
// of both label sets.
func ConfusionMatrix[L cmp.Ordered](yTrue, yPred []L) (*Confusion[L], error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("%w: %d true labels, %d predictions", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, ErrEmptyInput
	}

	labels := SortedClasses(yTrue, yPred)
	counts := mat.NewDense(len(labels), len(labels), nil)
	for i := range yTrue {
		r, _ := slices.BinarySearch(labels, yTrue[i])
		c, _ := slices.BinarySearch(labels, yPred[i])
		counts.Set(r, c, counts.At(r, c)+1)
	}
	return &Confusion[L]{Labels: labels, Counts: counts}, nil
}

// Transposed returns a copy with rows as predicted classes and columns as
// true classes.
func (c *Confusion[L]) Transposed() *mat.Dense {
	var t mat.Dense
	t.CloneFrom(c.Counts.T())
	return &t
}

// Count returns how many samples of class actual were predicted as predicted.
// Unknown labels count zero. Labels need not be sorted.
func (c *Confusion[L]) Count(actual, predicted L) int {
	r := slices.Index(c.Labels, actual)
	col := slices.Index(c.Labels, predicted)
	if r < 0 || col < 0 {
		return 0
	}
	return int(c.Counts.At(r, col))
}

// Size returns the number of classes.
func (c *Confusion[L]) Size() int {
	return len(c.Labels)
}
