// Package report renders evaluation curves as an interactive HTML page using
// go-echarts.
package report

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"net/http"

	"github.com/banshee-data/classeval/internal/evalplot"
	"github.com/banshee-data/classeval/internal/metrics"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost serves the echarts JavaScript bundles referenced by the page.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Sequential blues, light to dark, for the confusion heatmap.
var bluesRange = []string{"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"}

// Options tunes page construction.
type Options struct {
	Title string
	// ClassNames labels confusion matrix rows and columns in sorted class
	// order. Class values are used when nil or too short.
	ClassNames []string
}

// Build assembles the report page for ev: a ROC chart and a precision-recall
// chart when per-class curves exist, and a confusion heatmap when predicted
// labels were evaluated.
func Build[L cmp.Ordered](ev *metrics.Evaluation[L], o Options) *components.Page {
	title := o.Title
	if title == "" {
		title = "Classification report"
	}

	page := components.NewPage()
	page.PageTitle = title
	page.SetAssetsHost(AssetsHost)

	if len(ev.PerClass) > 0 {
		page.AddCharts(rocChart(ev.PerClass), prChart(ev.PerClass))
	}
	if ev.Confusion != nil {
		page.AddCharts(confusionChart(ev.Confusion, o.ClassNames))
	}
	return page
}

// Write renders page as HTML to w.
func Write(w io.Writer, page *components.Page) error {
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// Handler serves the report for ev as HTML.
func Handler[L cmp.Ordered](ev *metrics.Evaluation[L], o Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := Write(&buf, Build(ev, o)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}

func rocChart[L cmp.Ordered](per []metrics.ClassSummary[L]) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "ROC curve"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: 1, Name: "False Positive Rate (FPR)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: 1, Name: "True Positive Rate (TPR)", NameLocation: "middle", NameGap: 35}),
	)

	line.AddSeries("baseline", points([]float64{0, 1}, []float64{0, 1}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: "navy", Width: 2}))
	for _, s := range per {
		line.AddSeries(fmt.Sprintf("class %v; AUC: %s", s.Class, evalplot.FormatScore(s.ROCAUC)), points(s.ROC.FPR, s.ROC.TPR),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	return line
}

func prChart[L cmp.Ordered](per []metrics.ClassSummary[L]) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Precision-recall curve"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: -0.05, Max: 1.05, Name: "Recall", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -0.05, Max: 1.05, Name: "Precision", NameLocation: "middle", NameGap: 35}),
	)

	for _, s := range per {
		line.AddSeries(fmt.Sprintf("class %v; AUC: %s; AP: %s", s.Class, evalplot.FormatScore(s.PRAUC), evalplot.FormatScore(s.AveragePrecision)),
			points(s.PR.Recall, s.PR.Precision),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		line.AddSeries(fmt.Sprintf("class %v baseline", s.Class),
			points([]float64{0, 1}, []float64{s.Prevalence, s.Prevalence}),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Width: 1}))
	}
	return line
}

// confusionChart renders the transposed confusion matrix: rows are model
// predictions, columns are actual classes, first row at the top.
func confusionChart[L cmp.Ordered](conf *metrics.Confusion[L], names []string) *charts.HeatMap {
	n := conf.Size()
	labels := make([]string, n)
	for i, l := range conf.Labels {
		if i < len(names) {
			labels[i] = names[i]
		} else {
			labels[i] = fmt.Sprint(l)
		}
	}
	// echarts category y axes grow upwards.
	yLabels := make([]string, n)
	for i := range labels {
		yLabels[i] = labels[n-1-i]
	}

	t := conf.Transposed()
	data := make([]opts.HeatMapData, 0, n*n)
	maxVal := 0.0
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := t.At(r, c)
			if v > maxVal {
				maxVal = v
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, n - 1 - r, int(v)}})
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Confusion Matrix"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: labels, Name: "Actual", NameLocation: "middle", NameGap: 25,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels, Name: "Model Prediction", NameLocation: "middle", NameGap: 50,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxVal),
			InRange:    &opts.VisualMapInRange{Color: bluesRange},
		}),
	)
	hm.AddSeries("confusion", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm
}

func points(xs, ys []float64) []opts.LineData {
	data := make([]opts.LineData, len(xs))
	for i := range xs {
		data[i] = opts.LineData{Value: []interface{}{xs[i], ys[i]}}
	}
	return data
}
