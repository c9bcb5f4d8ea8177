// Command classeval evaluates classifier predictions stored in a CSV file. It
// writes confusion matrix, ROC and precision-recall plots plus an HTML report,
// optionally records the run in SQLite and serves the report over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/classeval/internal/api"
	"github.com/banshee-data/classeval/internal/config"
	"github.com/banshee-data/classeval/internal/evalplot"
	"github.com/banshee-data/classeval/internal/fsutil"
	"github.com/banshee-data/classeval/internal/report"
	"github.com/banshee-data/classeval/internal/store"
	"github.com/banshee-data/classeval/internal/version"
)

var (
	input       = flag.String("input", "", "CSV file with label, pred and p_<class> columns (required)")
	configPath  = flag.String("config", "", "JSON evaluation config")
	outDir      = flag.String("out", "eval-out", "Directory for plots and report.html")
	dbPath      = flag.String("db", "", "SQLite database to record the run in")
	listen      = flag.String("listen", "", "Serve the report and debug routes on this address")
	showVersion = flag.Bool("version", false, "Print version and exit")
	verbose     = flag.Bool("v", false, "Log plot and store diagnostics")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *input == "" {
		flag.Usage()
		log.Fatal("-input is required")
	}

	evalplot.SetLogWriters(os.Stderr, nil, nil)
	store.SetLogWriters(os.Stderr, nil, nil)
	if *verbose {
		evalplot.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
		store.SetLogWriters(os.Stderr, os.Stderr, nil)
	}

	cfg := config.EmptyEvalConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadEvalConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	res, err := evaluate(fsutil.OSFileSystem{}, *input, *outDir, cfg)
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}
	for _, path := range res.artifacts {
		log.Printf("wrote %s", path)
	}
	for _, s := range res.eval.PerClass {
		log.Printf("class %q: prevalence=%.3f roc_auc=%.4f pr_auc=%.4f ap=%.4f", s.Class, s.Prevalence, s.ROCAUC, s.PRAUC, s.AveragePrecision)
	}

	var db *store.Store
	if *dbPath != "" {
		db, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		id, err := db.RecordRun(context.Background(), res.run(*input, cfg, version.String()))
		if err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		log.Printf("recorded run %s in %s", id, *dbPath)
	}

	if *listen == "" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, *listen, newMux(res, db)); err != nil {
		log.Printf("HTTP server error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// newMux mounts the report at /, the JSON API under /api/ and, with a store,
// the admin debug routes.
func newMux(res *result, db *store.Store) *http.ServeMux {
	mux := http.NewServeMux()
	if db != nil {
		if err := db.AttachAdminRoutes(mux); err != nil {
			log.Printf("admin routes disabled: %v", err)
		}
	}

	apiServer := api.NewServer(res.eval, db)
	if res.binary {
		apiServer.SetThresholds(res.positive, res.threshold)
	}
	mux.Handle("/api/", http.StripPrefix("/api", apiServer.ServeMux()))
	mux.Handle("/", report.Handler(res.eval, res.options))
	return mux
}

// serve runs an HTTP server on addr until ctx is cancelled.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:    addr,
		Handler: api.LoggingMiddleware(handler),
	}

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	log.Printf("serving report on %s", addr)

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
