package main

import (
	"bytes"
	"cmp"
	"fmt"
	"log"
	"path/filepath"

	"github.com/banshee-data/classeval/internal/config"
	"github.com/banshee-data/classeval/internal/dataset"
	"github.com/banshee-data/classeval/internal/evalplot"
	"github.com/banshee-data/classeval/internal/fsutil"
	"github.com/banshee-data/classeval/internal/metrics"
	"github.com/banshee-data/classeval/internal/report"
	"github.com/banshee-data/classeval/internal/store"
	"gonum.org/v1/plot/vg"
)

// result is everything one evaluation produced. Classes are named as they
// appear in the input, in class order.
type result struct {
	eval      *metrics.Evaluation[string]
	samples   int
	positive  string
	binary    bool
	threshold []float64
	artifacts []string
	options   report.Options
}

// labelled is a loaded table with classes of type L. Numeric classes are
// evaluated as numbers so that they sort by value.
type labelled[L cmp.Ordered] struct {
	labels    []L
	predicted []L
	scores    metrics.ClassScores[L]
	// name renders a class as written in the input; class resolves
	// configured text back to a class.
	name  func(L) string
	class func(string) (L, bool)
}

func textLabels(tbl *dataset.Table) labelled[string] {
	return labelled[string]{
		labels:    tbl.Labels,
		predicted: tbl.Predicted,
		scores:    tbl.Scores,
		name:      func(s string) string { return s },
		class:     func(s string) (string, bool) { return s, true },
	}
}

func numericLabels(num *dataset.Numeric) labelled[float64] {
	return labelled[float64]{
		labels:    num.Labels,
		predicted: num.Predicted,
		scores:    num.Scores,
		name:      num.Name,
		class:     num.Class,
	}
}

// evaluate loads input from fsys, computes the evaluation described by cfg
// and writes plots and the HTML report under outDir.
func evaluate(fsys fsutil.FileSystem, input, outDir string, cfg *config.EvalConfig) (*result, error) {
	tbl, err := dataset.LoadFile(fsys, input)
	if err != nil {
		return nil, err
	}
	if !tbl.HasPredictions() && !tbl.HasScores() {
		return nil, fmt.Errorf("%s: no pred or p_<class> columns to evaluate", input)
	}

	var res *result
	if num, ok := tbl.Numeric(); ok {
		res, err = evaluateClasses(fsys, input, outDir, cfg, numericLabels(num))
	} else {
		res, err = evaluateClasses(fsys, input, outDir, cfg, textLabels(tbl))
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, report.Build(res.eval, res.options)); err != nil {
		return nil, err
	}
	reportPath := filepath.Join(outDir, "report.html")
	if err := writeFile(fsys, reportPath, buf.Bytes()); err != nil {
		return nil, err
	}
	res.artifacts = append(res.artifacts, reportPath)
	return res, nil
}

func evaluateClasses[L cmp.Ordered](fsys fsutil.FileSystem, input, outDir string, cfg *config.EvalConfig, lab labelled[L]) (*result, error) {
	classes := metrics.SortedClasses(lab.labels)
	if lab.scores != nil && len(classes) == 2 {
		completeBinaryScores(classes, lab.scores, lab.name)
	}

	ev, err := metrics.Evaluate(lab.labels, lab.predicted, lab.scores)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", input, err)
	}
	res := &result{
		eval:    metrics.Relabel(ev, lab.name),
		samples: len(lab.labels),
		binary:  len(ev.Classes) == 2,
		options: report.Options{Title: cfg.GetTitle(), ClassNames: cfg.ClassNames},
	}

	format := cfg.GetFormat()
	w := vg.Length(cfg.GetPlotWidth()) * vg.Inch
	h := vg.Length(cfg.GetPlotHeight()) * vg.Inch
	save := func(d evalplot.Drawer, w, h vg.Length, name string) error {
		path := filepath.Join(outDir, name+"."+format)
		if err := evalplot.Save(fsys, d, w, h, path); err != nil {
			return err
		}
		res.artifacts = append(res.artifacts, path)
		return nil
	}

	if lab.predicted != nil {
		names := cfg.ClassNames
		if names == nil {
			for _, c := range metrics.SortedClasses(lab.labels, lab.predicted) {
				names = append(names, lab.name(c))
			}
		}
		p, err := evalplot.ConfusionMatrixVisual(lab.labels, lab.predicted, names, nil, cfg.GetTitle())
		if err != nil {
			return nil, err
		}
		if err := save(p, w, h, "confusion"); err != nil {
			return nil, err
		}
	}

	if lab.scores == nil {
		return res, nil
	}
	if res.binary {
		if err := binaryCurves(res, lab, ev.Classes, cfg, save, w, h); err != nil {
			return nil, err
		}
		return res, nil
	}

	p, err := evalplot.PlotMultiClassROC(lab.labels, lab.scores, nil)
	if err != nil {
		return nil, err
	}
	if err := save(p, w, h, "multiclass_roc"); err != nil {
		return nil, err
	}
	g, err := evalplot.PlotMultiClassPRCurve(lab.labels, lab.scores)
	if err != nil {
		return nil, err
	}
	gw, gh := g.Size()
	if err := save(g, gw, gh, "multiclass_pr"); err != nil {
		return nil, err
	}
	return res, nil
}

// completeBinaryScores fills in the score column of a two-class table that
// only carries one as its complement, so that a single positive-class
// probability column is enough.
func completeBinaryScores[L cmp.Ordered](classes []L, scores metrics.ClassScores[L], name func(L) string) {
	a, b := classes[0], classes[1]
	_, hasA := scores[a]
	_, hasB := scores[b]
	switch {
	case hasA && !hasB:
		scores[b] = complement(scores[a])
		log.Printf("scores for class %q taken as 1 - p_%s", name(b), name(a))
	case hasB && !hasA:
		scores[a] = complement(scores[b])
		log.Printf("scores for class %q taken as 1 - p_%s", name(a), name(b))
	}
}

func complement(p []float64) []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = 1 - v
	}
	return out
}

func binaryCurves[L cmp.Ordered](res *result, lab labelled[L], classes []L, cfg *config.EvalConfig, save func(evalplot.Drawer, vg.Length, vg.Length, string) error, w, h vg.Length) error {
	positive := classes[len(classes)-1]
	if text, ok := cfg.GetPositiveClass(); ok {
		positive, ok = lab.class(text)
		if !ok {
			return fmt.Errorf("positive class %q is not a label", text)
		}
	}
	res.positive = lab.name(positive)

	scores, err := lab.scores.Column(positive, len(lab.labels))
	if err != nil {
		return err
	}

	res.threshold, err = metrics.FindThreshold(lab.labels, scores, positive, cfg.GetFPRBelow(), cfg.GetTPRAbove())
	if err != nil {
		return err
	}
	if len(res.threshold) == 0 {
		log.Printf("no threshold reaches FPR <= %.3g and TPR >= %.3g for class %q", cfg.GetFPRBelow(), cfg.GetTPRAbove(), res.positive)
	} else {
		log.Printf("thresholds with FPR <= %.3g and TPR >= %.3g for class %q: %v", cfg.GetFPRBelow(), cfg.GetTPRAbove(), res.positive, res.threshold)
	}

	roc, err := evalplot.PlotROC(lab.labels, scores, positive, nil)
	if err != nil {
		return err
	}
	if err := save(roc, w, h, "roc"); err != nil {
		return err
	}
	pr, err := evalplot.PlotPRCurve(lab.labels, scores, positive)
	if err != nil {
		return err
	}
	return save(pr, w, h, "pr")
}

// run builds the store record for res.
func (res *result) run(source string, cfg *config.EvalConfig, toolVersion string) store.Run {
	r := store.RunFromEvaluation(res.eval, source, res.samples)
	if res.binary {
		r.PositiveClass = res.positive
	}
	r.FPRBelow = cfg.GetFPRBelow()
	r.TPRAbove = cfg.GetTPRAbove()
	r.Thresholds = res.threshold
	r.ToolVersion = toolVersion
	return r
}

func writeFile(fsys fsutil.FileSystem, path string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
