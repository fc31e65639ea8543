package app

import (
	"database/sql"
	"log/slog"

	"github.com/tendertrack/tender-agent/internal/classify"
	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/export"
	"github.com/tendertrack/tender-agent/internal/extract"
	"github.com/tendertrack/tender-agent/internal/fetch"
	"github.com/tendertrack/tender-agent/internal/ingest"
	"github.com/tendertrack/tender-agent/internal/links"
	"github.com/tendertrack/tender-agent/internal/llm/openai"
	"github.com/tendertrack/tender-agent/internal/ocr"
	"github.com/tendertrack/tender-agent/internal/pipeline"
	"github.com/tendertrack/tender-agent/internal/refine"
	"github.com/tendertrack/tender-agent/internal/repository"
	"github.com/tendertrack/tender-agent/internal/store"
	"github.com/tendertrack/tender-agent/internal/tenderid"
)

// Components are the wired pieces shared by the daemon and batch
// commands.
type Components struct {
	Processor *pipeline.Processor
	Repo      repository.TenderRepository
	Ingestor  *ingest.FSIngestor
	Exporter  *export.Service
}

// Build wires the pipeline from config. db may be nil, in which case
// records are not persisted and the counter store must be file-backed.
func Build(cfg *common.Config, db *sql.DB, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	artifacts, err := store.NewFSArtifactStore(cfg.Recovery.ArtifactDir, logger)
	if err != nil {
		return nil, err
	}

	engine := ocr.NewEngine(ocr.Config{
		Tesseract: cfg.OCR.Tesseract,
		Lang:      cfg.OCR.Lang,
		DPI:       cfg.OCR.DPI,
		MaxPages:  cfg.OCR.MaxPages,
	}, nil, logger)

	strategies := []extract.Strategy{
		extract.PlainTextStrategy{},
		extract.FitzStrategy{},
		extract.NewPdftotextStrategy("", false, nil),
		extract.NewPdftotextStrategy("", true, nil),
		extract.OCRStrategy{Engine: engine},
	}
	recoverer := extract.NewRecoverer(strategies, cfg.Recovery.MinTextLen, artifacts, logger)

	fetcher := fetch.NewHTTPFetcher(cfg.Traversal.FetchTimeout, logger)
	urlResolver := links.NewResolver(logger)
	traverser := links.NewTraverser(fetcher, recoverer, urlResolver,
		cfg.Traversal.MaxDepth, cfg.Traversal.MaxDocs, "", logger)

	classifier := classify.NewClassifier(nil, logger)

	var counters tenderid.CounterStore
	if cfg.TenderID.CounterDir != "" {
		counters, err = tenderid.NewFileCounterStore(cfg.TenderID.CounterDir)
		if err != nil {
			return nil, err
		}
	} else if db != nil {
		counters = repository.NewSQLCounterStore(db, logger)
	} else {
		counters, err = tenderid.NewFileCounterStore("./counters")
		if err != nil {
			return nil, err
		}
	}
	idResolver := tenderid.NewResolver(counters, cfg.TenderID.DegradedMode, logger)

	var merger *refine.Merger
	if cfg.LLM.APIKey != "" {
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		merger = refine.NewMerger(client, logger)
		logger.Info("refinement enabled", "model", cfg.LLM.Model)
	} else {
		logger.Warn("OPENAI_API_KEY not configured, refinement disabled")
	}

	var repo repository.TenderRepository
	if db != nil {
		repo = repository.NewTenderRepository(db, logger)
	}

	proc := pipeline.NewProcessor(recoverer, traverser, classifier, idResolver, merger, repo, logger)

	comps := &Components{
		Processor: proc,
		Repo:      repo,
		Ingestor:  ingest.NewFSIngestor(proc, true, logger),
	}
	if repo != nil {
		comps.Exporter = export.NewService(repo, logger)
	}
	return comps, nil
}
