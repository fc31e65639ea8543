package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/ocr"
)

// PlainTextStrategy serves .txt sources directly; it declines anything
// else so PDF strategies get their turn.
type PlainTextStrategy struct{}

func (PlainTextStrategy) Name() string { return "plain-text" }

func (PlainTextStrategy) Extract(ctx context.Context, path string) (string, error) {
	if constants.MapExtToFormat(filepath.Ext(path)) != constants.TXT {
		return "", fmt.Errorf("not a plain-text file: %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(b), nil
}

// FitzStrategy reads the PDF text layer in-process via go-fitz. Fast and
// first in the chain; yields nothing for scanned documents.
type FitzStrategy struct{}

func (FitzStrategy) Name() string { return "fitz-text" }

func (FitzStrategy) Extract(ctx context.Context, path string) (string, error) {
	if constants.MapExtToFormat(filepath.Ext(path)) != constants.PDF {
		return "", fmt.Errorf("not a pdf file: %s", path)
	}
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		txt, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("page %d text: %w", n+1, err)
		}
		b.WriteString(txt)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// PdftotextStrategy shells out to poppler's pdftotext as an alternative
// structural parse. Layout mode preserves column positions, which some
// BOQ tables need to stay readable.
type PdftotextStrategy struct {
	Binary string
	Layout bool
	Runner ocr.Runner
}

func NewPdftotextStrategy(binary string, layout bool, runner ocr.Runner) *PdftotextStrategy {
	if binary == "" {
		binary = "pdftotext"
	}
	if runner == nil {
		runner = ocr.NewExecRunner()
	}
	return &PdftotextStrategy{Binary: binary, Layout: layout, Runner: runner}
}

func (s *PdftotextStrategy) Name() string {
	if s.Layout {
		return "pdftotext-layout"
	}
	return "pdftotext"
}

func (s *PdftotextStrategy) Extract(ctx context.Context, path string) (string, error) {
	if _, err := s.Runner.LookPath(s.Binary); err != nil {
		return "", fmt.Errorf("%s not found: %w", s.Binary, err)
	}
	args := []string{"-enc", "UTF-8", "-eol", "unix"}
	if s.Layout {
		args = append(args, "-layout")
	}
	args = append(args, path, "-")
	out, errb, err := s.Runner.Run(ctx, s.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("pdftotext: %v: %s", err, string(errb))
	}
	return string(out), nil
}

// OCRStrategy is the terminal fallback for image-only documents.
type OCRStrategy struct {
	Engine *ocr.Engine
}

func (OCRStrategy) Name() string { return "ocr" }

func (s OCRStrategy) Extract(ctx context.Context, path string) (string, error) {
	res, err := s.Engine.Recognize(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
