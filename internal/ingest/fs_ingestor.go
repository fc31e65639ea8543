package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/classify"
	"github.com/tendertrack/tender-agent/internal/pipeline"
)

// FSIngestor feeds local files into the pipeline. It deduplicates by
// content hash within its own lifetime, so re-running over an unchanged
// directory does not reprocess documents.
type FSIngestor struct {
	Processor *pipeline.Processor
	Logger    *slog.Logger

	// ScreenText enables the tender-ness screen for plain-text sources;
	// non-tender files are skipped before the pipeline runs. PDFs are
	// always processed since their text is unknown until recovery.
	ScreenText bool

	mu   sync.Mutex
	seen map[string]IngestionResult // content hash -> first result
}

func NewFSIngestor(proc *pipeline.Processor, screenText bool, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Processor:  proc,
		Logger:     logger,
		ScreenText: screenText,
		seen:       map[string]IngestionResult{},
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	hash, err := HashFile(abs)
	if err != nil {
		return out, fmt.Errorf("hash: %w", err)
	}
	out.HashHex = hash

	i.mu.Lock()
	if prev, ok := i.seen[hash]; ok {
		i.mu.Unlock()
		i.Logger.Info("duplicate content, skipping", "path", abs, "hash", hash)
		prev.SourcePath = abs
		prev.Deduplicated = true
		return prev, nil
	}
	i.mu.Unlock()

	if i.ScreenText && ext == "txt" {
		b, err := os.ReadFile(abs)
		if err != nil {
			return out, fmt.Errorf("read: %w", err)
		}
		if !classify.IsTenderDocument(string(b)) {
			i.Logger.Info("not a tender document, skipping", "path", abs)
			out.Skipped = true
			return out, nil
		}
	}

	rec, err := i.Processor.Process(ctx, pipeline.Source{Path: abs, SourceRef: abs})
	if err != nil {
		return out, err
	}

	out.RecordID = rec.ID.String()
	out.TenderID = rec.Identifier.Value
	out.ProcessedAt = rec.ProcessedAt

	i.mu.Lock()
	i.seen[hash] = out
	i.mu.Unlock()
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and
// calls IngestPath for each matching file. Per-file failures are
// collected, never fatal to the walk.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(constants.NormalizeExt(filepath.Ext(path))) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		switch {
		case r.Skipped:
			stats.Skipped++
		case r.Deduplicated:
			stats.Deduplicated++
			stats.Succeeded++
		default:
			stats.Succeeded++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
