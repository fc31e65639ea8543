package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/extract"
	"github.com/tendertrack/tender-agent/internal/ocr"
)

// recover-text runs the text-recovery chain on one file and reports the
// winning strategy. Useful for checking what a problem PDF yields before
// it enters the pipeline.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "recover-text <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

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
	recoverer := extract.NewRecoverer(strategies, cfg.Recovery.MinTextLen, nil, logger)

	start := time.Now()
	doc, err := recoverer.Recover(ctx, path, path, "")
	dur := time.Since(start)

	if err != nil {
		logger.Error("text recovery failed",
			"path", path, "error", err, "duration_ms", dur.Milliseconds())
		for _, a := range doc.Attempts {
			logger.Info("attempt", "strategy", a.Strategy, "chars", a.Chars, "err", a.Err)
		}
		os.Exit(1)
	}

	logger.Info("text recovery OK",
		"path", path,
		"method", doc.Method,
		"chars", len(doc.Text),
		"ocr_used", doc.OCRUsed,
		"duration_ms", dur.Milliseconds(),
	)
}
