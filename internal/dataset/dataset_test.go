package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/banshee-data/classeval/internal/fsutil"
	"github.com/banshee-data/classeval/internal/metrics"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Full(t *testing.T) {
	in := `id,label,pred,p_cat,p_dog
1,cat,cat,0.9,0.1
2,dog,cat,0.6,0.4
3,dog,dog, 0.2,0.8
`
	tbl, err := Load(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.HasPredictions())
	assert.True(t, tbl.HasScores())

	want := &Table{
		Labels:    []string{"cat", "dog", "dog"},
		Predicted: []string{"cat", "cat", "dog"},
		Scores: metrics.ClassScores[string]{
			"cat": {0.9, 0.6, 0.2},
			"dog": {0.1, 0.4, 0.8},
		},
	}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_LabelsOnlyWithPred(t *testing.T) {
	tbl, err := Load(strings.NewReader("pred,label\n1,0\n1,1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, tbl.Labels)
	assert.Equal(t, []string{"1", "1"}, tbl.Predicted)
	assert.False(t, tbl.HasScores())
	assert.Nil(t, tbl.Scores)
}

func TestLoad_ScoresWithoutPred(t *testing.T) {
	tbl, err := Load(strings.NewReader("label,p_1,p_0\n1,0.7,0.3\n0,0.4,0.6\n"))
	require.NoError(t, err)
	assert.False(t, tbl.HasPredictions())
	assert.Nil(t, tbl.Predicted)
	assert.Equal(t, []float64{0.7, 0.4}, tbl.Scores["1"])
	assert.Equal(t, []float64{0.3, 0.6}, tbl.Scores["0"])
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		check func(t *testing.T, err error)
	}{
		{"empty", "", func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoRows) }},
		{"header only", "label,p_a\n", func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoRows) }},
		{"no label", "pred,p_a\na,0.5\n", func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoLabelColumn) }},
		{"ragged", "label,p_a\na,0.5\nb\n", func(t *testing.T, err error) { assert.ErrorIs(t, err, csv.ErrFieldCount) }},
		{"bad float", "label,p_a\na,high\n", func(t *testing.T, err error) {
			require.Error(t, err)
			assert.Contains(t, err.Error(), `line 2 column "p_a"`)
		}},
		{"duplicate score column", "label,p_a,p_a\na,0.1,0.2\n", func(t *testing.T, err error) {
			require.Error(t, err)
			assert.Contains(t, err.Error(), "duplicate score column")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in))
			tt.check(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("data/preds.csv", []byte("label,pred\nx,y\n"))

	tbl, err := LoadFile(fsys, "data/preds.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, tbl.Labels)

	_, err = LoadFile(fsys, "data/missing.csv")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	fsys.WriteFile("data/empty.csv", nil)
	_, err = LoadFile(fsys, "data/empty.csv")
	assert.ErrorIs(t, err, ErrNoRows)
	assert.Contains(t, err.Error(), "data/empty.csv")
}

func TestLoad_FeedsEvaluate(t *testing.T) {
	tbl, err := Load(strings.NewReader("label,pred,p_a,p_b\na,a,0.8,0.2\nb,b,0.3,0.7\na,b,0.45,0.55\nb,a,0.6,0.4\n"))
	require.NoError(t, err)

	ev, err := metrics.Evaluate(tbl.Labels, tbl.Predicted, tbl.Scores)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ev.Classes)
	require.NotNil(t, ev.Confusion)
	assert.Equal(t, 1, ev.Confusion.Count("a", "b"))
	assert.Len(t, ev.PerClass, 2)
}

func TestNumeric_ElevenClassesSortByValue(t *testing.T) {
	var b strings.Builder
	b.WriteString("label,pred\n")
	for c := 0; c <= 10; c++ {
		fmt.Fprintf(&b, "%d,%d\n", c, (c+1)%11)
	}
	tbl, err := Load(strings.NewReader(b.String()))
	require.NoError(t, err)

	num, ok := tbl.Numeric()
	require.True(t, ok)

	classes := metrics.SortedClasses(num.Labels)
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = num.Name(c)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, names)
	assert.Equal(t, "10", names[len(names)-1])
}

func TestNumeric_KeepsSpellingAndResolvesClasses(t *testing.T) {
	in := "label,p_1.0,p_2\n1.0,0.9,0.1\n2,0.2,0.8\n"
	tbl, err := Load(strings.NewReader(in))
	require.NoError(t, err)

	num, ok := tbl.Numeric()
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, num.Labels)
	assert.Nil(t, num.Predicted)
	assert.Equal(t, []float64{0.9, 0.2}, num.Scores[1])
	assert.Equal(t, "1.0", num.Name(1))

	v, ok := num.Class("1.0")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, ok = num.Class("1")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, ok = num.Class("3")
	assert.False(t, ok)
	_, ok = num.Class("cat")
	assert.False(t, ok)
}

func TestNumeric_Rejects(t *testing.T) {
	tests := map[string]string{
		"text label":        "label\n1\ncat\n",
		"text prediction":   "label,pred\n1,1\n2,dog\n",
		"text score column": "label,p_cat\n1,0.5\n2,0.5\n",
		"two spellings":     "label\n1\n1.0\n",
		"infinite":          "label\n1\nInf\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			tbl, err := Load(strings.NewReader(in))
			require.NoError(t, err)
			_, ok := tbl.Numeric()
			assert.False(t, ok)
		})
	}
}
