package ocr

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/tendertrack/tender-agent/internal/common"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Lang      string // default "eng"
	DPI       int    // rasterization DPI for scanned pages, default 300
	MaxPages  int    // 0 = no limit
}

type Result struct {
	Text     string
	Pages    int
	Duration time.Duration
	Warnings []string
}

// Engine recognizes text on image-only PDF pages: go-fitz renders each
// page to PNG and tesseract reads it back.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

// Recognize runs OCR over every page of the PDF at path. A missing
// tesseract binary yields ErrOCRUnavailable so callers can skip OCR
// without aborting the pipeline.
func (e *Engine) Recognize(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	if _, err := e.runner.LookPath(e.cfg.Tesseract); err != nil {
		return Result{}, fmt.Errorf("%w: %s not found", common.ErrOCRUnavailable, e.cfg.Tesseract)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return Result{}, fmt.Errorf("open pdf for ocr: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
	}

	tmpDir, err := os.MkdirTemp("", "ta-ocr-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove ocr temp dir", "dir", tmpDir, "error", err)
		}
	}()

	var b strings.Builder
	var warns []string
	for n := 0; n < pages; n++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		imgPath, err := e.renderPage(doc, n, tmpDir)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d render: %v", n+1, err))
			continue
		}

		txt, err := e.tesseract(ctx, imgPath)
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d ocr: %v", n+1, err))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}

	res := Result{Text: b.String(), Pages: pages, Duration: time.Since(start), Warnings: warns}
	e.logger.Info("ocr complete",
		"path", path, "pages", pages,
		"chars", len(res.Text), "warnings", len(warns),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Engine) renderPage(doc *fitz.Document, n int, tmpDir string) (string, error) {
	img, err := doc.ImageDPI(n, float64(e.cfg.DPI))
	if err != nil {
		return "", err
	}
	out := filepath.Join(tmpDir, fmt.Sprintf("page_%03d.png", n+1))
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", err
	}
	return out, f.Close()
}

func (e *Engine) tesseract(ctx context.Context, imgPath string) (string, error) {
	// tesseract <img> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, imgPath, "stdout", "-l", e.cfg.Lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %v: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
