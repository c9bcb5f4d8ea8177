// Package dataset reads labelled prediction tables from CSV.
//
// The header row names the columns. "label" holds the true class and is
// required. "pred" holds the predicted class and is optional. Every
// "p_<class>" column holds that class's score. Other columns are ignored.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/classeval/internal/fsutil"
	"github.com/banshee-data/classeval/internal/metrics"
)

const (
	labelColumn = "label"
	predColumn  = "pred"
	scorePrefix = "p_"
)

var (
	// ErrNoLabelColumn is returned when the header lacks a label column.
	ErrNoLabelColumn = errors.New("dataset: missing label column")
	// ErrNoRows is returned for a table with a header and no data.
	ErrNoRows = errors.New("dataset: no data rows")
)

// Table is a loaded prediction set.
type Table struct {
	Labels []string
	// Predicted is nil when the input has no pred column.
	Predicted []string
	// Scores is nil when the input has no score columns.
	Scores metrics.ClassScores[string]
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Labels) }

// HasPredictions reports whether predicted labels were loaded.
func (t *Table) HasPredictions() bool { return t.Predicted != nil }

// HasScores reports whether any score columns were loaded.
func (t *Table) HasScores() bool { return len(t.Scores) > 0 }

// Load parses a CSV table from r.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	labelIdx, predIdx := -1, -1
	scoreIdx := map[string]int{}
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch {
		case name == labelColumn:
			labelIdx = i
		case name == predColumn:
			predIdx = i
		case strings.HasPrefix(name, scorePrefix) && len(name) > len(scorePrefix):
			class := strings.TrimPrefix(name, scorePrefix)
			if _, dup := scoreIdx[class]; dup {
				return nil, fmt.Errorf("dataset: duplicate score column %q", name)
			}
			scoreIdx[class] = i
		}
	}
	if labelIdx < 0 {
		return nil, ErrNoLabelColumn
	}

	t := &Table{}
	if predIdx >= 0 {
		t.Predicted = []string{}
	}
	if len(scoreIdx) > 0 {
		t.Scores = make(metrics.ClassScores[string], len(scoreIdx))
	}

	// Line 1 is the header.
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ErrFieldCount and quoting errors carry their own position.
			return nil, fmt.Errorf("read row: %w", err)
		}

		t.Labels = append(t.Labels, strings.TrimSpace(rec[labelIdx]))
		if predIdx >= 0 {
			t.Predicted = append(t.Predicted, strings.TrimSpace(rec[predIdx]))
		}
		for class, i := range scoreIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[i], err)
			}
			t.Scores[class] = append(t.Scores[class], v)
		}
	}

	if len(t.Labels) == 0 {
		return nil, ErrNoRows
	}
	return t, nil
}

// LoadFile opens path on fsys and parses it with Load.
func LoadFile(fsys fsutil.FileSystem, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Numeric is a Table whose classes are all numbers, so they order by value
// rather than as text.
type Numeric struct {
	Labels    []float64
	Predicted []float64
	Scores    metrics.ClassScores[float64]

	names  map[float64]string
	values map[string]float64
}

// Name returns the class as it was written in the input.
func (n *Numeric) Name(v float64) string {
	if s, ok := n.names[v]; ok {
		return s
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Class resolves text naming a class, either as written in the input or as
// any spelling of the same number.
func (n *Numeric) Class(s string) (float64, bool) {
	if v, ok := n.values[s]; ok {
		return v, true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	_, ok := n.names[v]
	return v, ok
}

// Numeric converts t when every label, prediction and score column class
// parses as a finite number and no two spellings name the same number.
func (t *Table) Numeric() (*Numeric, bool) {
	n := &Numeric{names: map[float64]string{}, values: map[string]float64{}}
	parse := func(s string) (float64, bool) {
		if v, ok := n.values[s]; ok {
			return v, true
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		if prev, dup := n.names[v]; dup && prev != s {
			return 0, false
		}
		n.names[v] = s
		n.values[s] = v
		return v, true
	}
	convert := func(in []string) ([]float64, bool) {
		if in == nil {
			return nil, true
		}
		out := make([]float64, len(in))
		for i, s := range in {
			v, ok := parse(s)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}

	var ok bool
	if n.Labels, ok = convert(t.Labels); !ok {
		return nil, false
	}
	if n.Predicted, ok = convert(t.Predicted); !ok {
		return nil, false
	}
	if t.Scores != nil {
		n.Scores = make(metrics.ClassScores[float64], len(t.Scores))
		for class, col := range t.Scores {
			v, ok := parse(class)
			if !ok {
				return nil, false
			}
			n.Scores[v] = col
		}
	}
	return n, true
}
