package metrics

import (
	"cmp"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrMissingClassScores is returned when a class has no probability column.
var ErrMissingClassScores = errors.New("metrics: no scores for class")

// ClassScores maps each class label to its predicted probability column,
// one entry per sample.
type ClassScores[L cmp.Ordered] map[L][]float64

// ClassScoresFromMatrix builds ClassScores from a samples x classes matrix
// whose j-th column holds the probabilities for classes[j].
func ClassScoresFromMatrix[L cmp.Ordered](classes []L, probs mat.Matrix) (ClassScores[L], error) {
	rows, cols := probs.Dims()
	if cols != len(classes) {
		return nil, fmt.Errorf("%w: %d classes, %d probability columns", ErrLengthMismatch, len(classes), cols)
	}
	s := make(ClassScores[L], len(classes))
	for j, c := range classes {
		if _, dup := s[c]; dup {
			return nil, fmt.Errorf("metrics: duplicate class %v", c)
		}
		s[c] = mat.Col(make([]float64, rows), j, probs)
	}
	return s, nil
}

// Column returns the probabilities for class, checking that it covers n
// samples.
func (s ClassScores[L]) Column(class L, n int) ([]float64, error) {
	col, ok := s[class]
	if !ok {
		return nil, fmt.Errorf("%w %v", ErrMissingClassScores, class)
	}
	if len(col) != n {
		return nil, fmt.Errorf("%w: class %v has %d scores, want %d", ErrLengthMismatch, class, len(col), n)
	}
	return col, nil
}
