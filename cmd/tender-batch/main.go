package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendertrack/tender-agent/internal/app"
	"github.com/tendertrack/tender-agent/internal/async"
	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/ingest"
	"github.com/tendertrack/tender-agent/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	_ = godotenv.Load()

	var (
		inmem = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir   = flag.String("dir", "", "directory to process tender documents from (required)")
		out   = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		watch = flag.Bool("watch", false, "keep running and process new files as they appear")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "tenders.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()

	db, cleanup, err := openDatabase(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := repository.Migrate(ctx, db, logger); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	comps, err := app.Build(cfg, db, logger)
	if err != nil {
		logger.Error("wiring failed", "error", err)
		os.Exit(1)
	}

	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := comps.Ingestor.IngestDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	if *watch {
		runWatch(ctx, comps, *dir, logger)
	}

	// after a watch session the signal context is already cancelled, so
	// the final export needs its own deadline
	exportCtx, cancelExport := exportContext(ctx)
	defer cancelExport()

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := comps.Exporter.ExportTendersXLSX(exportCtx, 0)
	if err != nil {
		logger.Error("failed to export tenders", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	failures := 0
	for _, r := range results {
		if r.Err != "" {
			failures++
		}
	}
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", stats.Succeeded)
	fmt.Printf("- Skipped (not tenders): %d\n", stats.Skipped)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}

// runWatch processes new files under dir until interrupted, fanning
// them out to a worker pool.
func runWatch(ctx context.Context, comps *app.Components, dir string, logger *slog.Logger) {
	evCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{dir},
		Debounce: 500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		return
	}
	logger.Info("watching for new tender documents", "dir", dir)

	queue := async.NewProcessorQueue(comps.Processor, logger)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(drainCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-evCh:
			if !ok {
				return
			}
			_ = queue.Enqueue(ctx, async.Job{
				Path:        path,
				SourceRef:   path,
				SubmittedAt: time.Now(),
			})
		case err, ok := <-errCh:
			if ok && err != nil {
				logger.Error("watcher error", "error", err)
			}
		}
	}
}

// exportContext returns parent while it is still live, and a fresh
// timeout context once parent has been cancelled (e.g. by the interrupt
// that ended a watch session).
func exportContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent.Err() != nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	return context.WithCancel(parent)
}

func openDatabase(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*sql.DB, func(), error) {
	if inmem || cfg.Database.DSN == "" {
		path := ":memory:"
		if !inmem {
			path = "./tenders.db"
		}
		db, err := repository.OpenSQLite(path, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}

	db, pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { repository.Close(db, pool, logger) }, nil
}
