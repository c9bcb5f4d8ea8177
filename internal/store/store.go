// Package store persists evaluation runs in SQLite so results can be compared
// across model versions and inspected through the tailsql debug console.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/banshee-data/classeval/internal/httputil"
	"github.com/banshee-data/classeval/internal/metrics"
	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// ErrRunNotFound is returned by Run for an unknown run ID.
var ErrRunNotFound = errors.New("store: run not found")

// Store is an evaluation run database.
type Store struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the SQLite database at path and migrates
// it to the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{DB: db, path: path}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	opsf("opened run store %s", path)
	return s, nil
}

// ClassResult is the one-vs-rest summary of one class in a run.
type ClassResult struct {
	Class            string  `json:"class"`
	Prevalence       float64 `json:"prevalence"`
	ROCAUC           float64 `json:"roc_auc"`
	PRAUC            float64 `json:"pr_auc"`
	AveragePrecision float64 `json:"average_precision"`
}

// ConfusionCell is one non-zero confusion matrix entry.
type ConfusionCell struct {
	Actual    string `json:"actual"`
	Predicted string `json:"predicted"`
	Count     int    `json:"count"`
}

// Run is one recorded evaluation.
type Run struct {
	// ID is assigned by RecordRun when empty.
	ID string `json:"id"`
	// CreatedAt is set by RecordRun when zero.
	CreatedAt time.Time `json:"created_at"`
	// Source names the evaluated input, usually the CSV path.
	Source string `json:"source"`
	// PositiveClass is empty for multi-class runs.
	PositiveClass string  `json:"positive_class,omitempty"`
	Samples       int     `json:"samples"`
	FPRBelow      float64 `json:"fpr_below"`
	TPRAbove      float64 `json:"tpr_above"`
	// Thresholds holds the qualifying thresholds of a binary run.
	Thresholds  metrics.Thresholds `json:"thresholds"`
	ToolVersion string             `json:"tool_version"`
	Classes     []ClassResult      `json:"classes"`
	Confusion   []ConfusionCell    `json:"confusion,omitempty"`
}

// RunFromEvaluation builds a Run from ev. Thresholds and bounds are left for
// the caller to fill in.
func RunFromEvaluation(ev *metrics.Evaluation[string], source string, samples int) Run {
	r := Run{Source: source, Samples: samples}
	for _, s := range ev.PerClass {
		r.Classes = append(r.Classes, ClassResult{
			Class:            s.Class,
			Prevalence:       s.Prevalence,
			ROCAUC:           s.ROCAUC,
			PRAUC:            s.PRAUC,
			AveragePrecision: s.AveragePrecision,
		})
	}
	if ev.Confusion != nil {
		for _, actual := range ev.Confusion.Labels {
			for _, predicted := range ev.Confusion.Labels {
				if n := ev.Confusion.Count(actual, predicted); n > 0 {
					r.Confusion = append(r.Confusion, ConfusionCell{Actual: actual, Predicted: predicted, Count: n})
				}
			}
		}
	}
	return r
}

// RecordRun inserts r and its per-class rows in one transaction and returns
// the run ID.
func (s *Store) RecordRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	thresholds := r.Thresholds
	if thresholds == nil {
		thresholds = metrics.Thresholds{}
	}
	thresholdsJSON, err := json.Marshal(thresholds)
	if err != nil {
		return "", fmt.Errorf("encode thresholds: %w", err)
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO eval_runs (run_id, created_unix_nanos, source, positive_class, samples, num_classes, fpr_below, tpr_above, thresholds_json, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UnixNano(), r.Source, r.PositiveClass, r.Samples, len(r.Classes), r.FPRBelow, r.TPRAbove, string(thresholdsJSON), r.ToolVersion)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, c := range r.Classes {
		_, err = tx.ExecContext(ctx, `INSERT INTO eval_class_results (run_id, class, prevalence, roc_auc, pr_auc, average_precision)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, c.Class, c.Prevalence, c.ROCAUC, c.PRAUC, c.AveragePrecision)
		if err != nil {
			return "", fmt.Errorf("insert class %q: %w", c.Class, err)
		}
		tracef("run %s class %s roc_auc=%.4f ap=%.4f", r.ID, c.Class, c.ROCAUC, c.AveragePrecision)
	}

	for _, c := range r.Confusion {
		_, err = tx.ExecContext(ctx, `INSERT INTO eval_confusion_counts (run_id, actual, predicted, cell_count) VALUES (?, ?, ?, ?)`,
			r.ID, c.Actual, c.Predicted, c.Count)
		if err != nil {
			return "", fmt.Errorf("insert confusion cell: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	opsf("recorded run %s (%s, %d samples)", r.ID, r.Source, r.Samples)
	return r.ID, nil
}

// Runs returns all recorded runs, newest first, with their class results
// in the order they were recorded.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.QueryContext(ctx, `SELECT run_id, created_unix_nanos, source, positive_class, samples, fpr_below, tpr_above, thresholds_json, tool_version
		FROM eval_runs ORDER BY created_unix_nanos DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range runs {
		if err := s.loadDetails(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	diagf("loaded %d runs", len(runs))
	return runs, nil
}

// Run returns the run with the given ID.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.QueryRowContext(ctx, `SELECT run_id, created_unix_nanos, source, positive_class, samples, fpr_below, tpr_above, thresholds_json, tool_version
		FROM eval_runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	if err := s.loadDetails(ctx, &r); err != nil {
		return Run{}, err
	}
	return r, nil
}

// DeleteRun removes a run and its detail rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM eval_confusion_counts WHERE run_id = ?`,
		`DELETE FROM eval_class_results WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM eval_runs WHERE run_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r              Run
		createdNanos   int64
		positive       sql.NullString
		thresholdsJSON string
	)
	if err := sc.Scan(&r.ID, &createdNanos, &r.Source, &positive, &r.Samples, &r.FPRBelow, &r.TPRAbove, &thresholdsJSON, &r.ToolVersion); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.Unix(0, createdNanos)
	r.PositiveClass = positive.String
	if err := json.Unmarshal([]byte(thresholdsJSON), &r.Thresholds); err != nil {
		return Run{}, fmt.Errorf("decode thresholds of run %s: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) loadDetails(ctx context.Context, r *Run) error {
	rows, err := s.QueryContext(ctx, `SELECT class, prevalence, roc_auc, pr_auc, average_precision
		FROM eval_class_results WHERE run_id = ? ORDER BY rowid`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c ClassResult
		if err := rows.Scan(&c.Class, &c.Prevalence, &c.ROCAUC, &c.PRAUC, &c.AveragePrecision); err != nil {
			return err
		}
		r.Classes = append(r.Classes, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cells, err := s.QueryContext(ctx, `SELECT actual, predicted, cell_count
		FROM eval_confusion_counts WHERE run_id = ? ORDER BY rowid`, r.ID)
	if err != nil {
		return err
	}
	defer cells.Close()
	for cells.Next() {
		var c ConfusionCell
		if err := cells.Scan(&c.Actual, &c.Predicted, &c.Count); err != nil {
			return err
		}
		r.Confusion = append(r.Confusion, c)
	}
	return cells.Err()
}

// AttachAdminRoutes mounts the tailsql console for this database and a JSON
// run listing under tsweb's /debug/ page on mux.
func (s *Store) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(s.path), s.DB, &tailsql.DBOptions{
		Label: "Evaluation runs",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("runs", "Recorded evaluation runs (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runs, err := s.Runs(r.Context())
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, runs)
	}))
	return nil
}
