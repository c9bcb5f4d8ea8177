// Package api serves evaluation summaries and recorded runs as JSON.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/banshee-data/classeval/internal/httputil"
	"github.com/banshee-data/classeval/internal/metrics"
	"github.com/banshee-data/classeval/internal/store"
)

// ClassSummary is the JSON form of one class's one-vs-rest metrics.
type ClassSummary struct {
	Class            string  `json:"class"`
	Prevalence       float64 `json:"prevalence"`
	ROCAUC           float64 `json:"roc_auc"`
	PRAUC            float64 `json:"pr_auc"`
	AveragePrecision float64 `json:"average_precision"`
}

// Summary is the JSON form of the served evaluation.
type Summary struct {
	Classes       []string           `json:"classes"`
	PositiveClass string             `json:"positive_class,omitempty"`
	Thresholds    metrics.Thresholds `json:"thresholds,omitempty"`
	PerClass      []ClassSummary     `json:"per_class"`
	// Confusion rows are actual classes, columns predicted, both in
	// ConfusionLabels order.
	ConfusionLabels []string `json:"confusion_labels,omitempty"`
	Confusion       [][]int  `json:"confusion,omitempty"`
}

type Server struct {
	summary Summary
	runs    *store.Store
}

// NewServer serves ev. runs may be nil, in which case the run endpoints
// answer 404.
func NewServer(ev *metrics.Evaluation[string], runs *store.Store) *Server {
	return &Server{summary: summarize(ev), runs: runs}
}

// SetThresholds records the positive class and its qualifying thresholds.
func (s *Server) SetThresholds(positive string, thresholds []float64) {
	s.summary.PositiveClass = positive
	s.summary.Thresholds = thresholds
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/summary", s.showSummary)
	mux.HandleFunc("/runs", s.listRuns)
	mux.HandleFunc("/runs/{id}", s.handleRun)
	return mux
}

func summarize(ev *metrics.Evaluation[string]) Summary {
	sum := Summary{Classes: ev.Classes, PerClass: []ClassSummary{}}
	for _, c := range ev.PerClass {
		sum.PerClass = append(sum.PerClass, ClassSummary{
			Class:            c.Class,
			Prevalence:       c.Prevalence,
			ROCAUC:           c.ROCAUC,
			PRAUC:            c.PRAUC,
			AveragePrecision: c.AveragePrecision,
		})
	}
	if conf := ev.Confusion; conf != nil {
		sum.ConfusionLabels = conf.Labels
		sum.Confusion = make([][]int, conf.Size())
		for i, actual := range conf.Labels {
			sum.Confusion[i] = make([]int, conf.Size())
			for j, predicted := range conf.Labels {
				sum.Confusion[i][j] = conf.Count(actual, predicted)
			}
		}
	}
	return sum
}

func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, s.summary)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "no run store configured")
		return
	}

	runs, err := s.runs.Runs(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		httputil.NotFound(w, "no run store configured")
		return
	}
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		run, err := s.runs.Run(r.Context(), id)
		if errors.Is(err, store.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to load run: %v", err))
			return
		}
		httputil.WriteJSONOK(w, run)
	case http.MethodDelete:
		err := s.runs.DeleteRun(r.Context(), id)
		if errors.Is(err, store.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to delete run: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}
