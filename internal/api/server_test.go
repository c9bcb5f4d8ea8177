package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/classeval/internal/metrics"
	"github.com/banshee-data/classeval/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvaluation(t *testing.T) *metrics.Evaluation[string] {
	t.Helper()
	ev, err := metrics.Evaluate(
		[]string{"neg", "pos", "pos", "neg"},
		[]string{"neg", "pos", "neg", "neg"},
		metrics.ClassScores[string]{
			"neg": {0.8, 0.1, 0.4, 0.6},
			"pos": {0.2, 0.9, 0.6, 0.4},
		})
	require.NoError(t, err)
	return ev
}

func setupTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewServer(testEvaluation(t), s), s
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestShowSummary(t *testing.T) {
	server, _ := setupTestServer(t)
	server.SetThresholds("pos", []float64{0.6})

	rec := do(t, server.ServeMux(), http.MethodGet, "/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var got Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.Equal(t, []string{"neg", "pos"}, got.Classes)
	assert.Equal(t, "pos", got.PositiveClass)
	assert.Equal(t, metrics.Thresholds{0.6}, got.Thresholds)
	require.Len(t, got.PerClass, 2)
	assert.Equal(t, "pos", got.PerClass[1].Class)
	assert.Equal(t, 1.0, got.PerClass[1].ROCAUC)
	if diff := cmp.Diff([][]int{{2, 0}, {1, 1}}, got.Confusion); diff != "" {
		t.Errorf("confusion mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"neg", "pos"}, got.ConfusionLabels)
}

func TestShowSummary_InfiniteThreshold(t *testing.T) {
	server, _ := setupTestServer(t)
	server.SetThresholds("pos", []float64{math.Inf(1), 0.9, 0.6})

	rec := do(t, server.ServeMux(), http.MethodGet, "/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"thresholds":["+Inf",0.9,0.6]`)

	var got Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Thresholds, 3)
	assert.True(t, math.IsInf(got.Thresholds[0], 1))
}

func TestShowSummary_MethodNotAllowed(t *testing.T) {
	server, _ := setupTestServer(t)
	rec := do(t, server.ServeMux(), http.MethodPost, "/summary")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSummarize_NoPredictions(t *testing.T) {
	ev, err := metrics.Evaluate([]string{"a", "b"}, nil, nil)
	require.NoError(t, err)
	sum := summarize(ev)
	assert.Nil(t, sum.Confusion)
	assert.Empty(t, sum.PerClass)
	assert.NotNil(t, sum.PerClass)
}

func TestRuns_ListGetDelete(t *testing.T) {
	server, s := setupTestServer(t)
	mux := server.ServeMux()

	rec := do(t, mux, http.MethodGet, "/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	id, err := s.RecordRun(context.Background(), store.RunFromEvaluation(testEvaluation(t), "preds.csv", 4))
	require.NoError(t, err)

	rec = do(t, mux, http.MethodGet, "/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []store.Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)

	rec = do(t, mux, http.MethodGet, "/runs/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"source":"preds.csv"`))

	rec = do(t, mux, http.MethodDelete, "/runs/"+id)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, mux, http.MethodGet, "/runs/"+id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, mux, http.MethodDelete, "/runs/"+id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuns_MethodNotAllowed(t *testing.T) {
	server, _ := setupTestServer(t)
	mux := server.ServeMux()

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, mux, http.MethodPost, "/runs").Code)
	rec := do(t, mux, http.MethodPut, "/runs/abc")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, []string{"GET", "DELETE"}, rec.Header().Values("Allow"))
}

func TestRuns_NoStore(t *testing.T) {
	server := NewServer(testEvaluation(t), nil)
	mux := server.ServeMux()
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/runs").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/runs/abc").Code)
}

func TestRuns_StoreClosed(t *testing.T) {
	server, s := setupTestServer(t)
	require.NoError(t, s.Close())
	assert.Equal(t, http.StatusInternalServerError, do(t, server.ServeMux(), http.MethodGet, "/runs").Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := do(t, h, http.MethodGet, "/summary?x=1")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "418")
	assert.Contains(t, buf.String(), "/summary?x=1")
}

func TestStatusCodeColor(t *testing.T) {
	assert.Equal(t, colorBoldGreen+"200"+colorReset, statusCodeColor(200))
	assert.Equal(t, colorYellow+"304"+colorReset, statusCodeColor(304))
	assert.Equal(t, colorBoldRed+"500"+colorReset, statusCodeColor(500))
	assert.Equal(t, "100", statusCodeColor(100))
}
