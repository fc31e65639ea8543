package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/store"
)

// Recoverer runs the strategy chain in priority order. The first
// strategy producing text above MinTextLen wins and later strategies are
// never invoked. Every attempt is recorded on the document for audit.
type Recoverer struct {
	strategies []Strategy
	minLen     int
	artifacts  store.ArtifactStore
	logger     *slog.Logger
}

func NewRecoverer(strategies []Strategy, minLen int, artifacts store.ArtifactStore, logger *slog.Logger) *Recoverer {
	if logger == nil {
		logger = slog.Default()
	}
	if minLen <= 0 {
		minLen = 50
	}
	return &Recoverer{strategies: strategies, minLen: minLen, artifacts: artifacts, logger: logger}
}

// Recover produces a RecoveredDocument for the file at path. When every
// strategy fails or falls short, the returned document is marked Failed
// and the error wraps ErrExtractionFailed; callers decide whether that
// aborts or degrades their run.
func (r *Recoverer) Recover(ctx context.Context, path, sourceRef, parentRef string) (entity.RecoveredDocument, error) {
	doc := entity.RecoveredDocument{
		ID:        uuid.New(),
		SourceRef: sourceRef,
		ParentRef: parentRef,
		CreatedAt: time.Now().UTC(),
	}

	for _, s := range r.strategies {
		start := time.Now()
		text, err := s.Extract(ctx, path)
		attempt := entity.ExtractionAttempt{
			Strategy: s.Name(),
			Chars:    utf8.RuneCountInString(strings.TrimSpace(text)),
			Duration: time.Since(start),
		}
		if err != nil {
			attempt.Err = err.Error()
			doc.Attempts = append(doc.Attempts, attempt)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return doc, err
			}
			if errors.Is(err, common.ErrOCRUnavailable) {
				r.logger.Warn("ocr unavailable, skipping", "source_ref", sourceRef, "error", err)
				continue
			}
			r.logger.Warn("recovery strategy failed",
				"source_ref", sourceRef, "strategy", s.Name(), "error", err)
			continue
		}
		doc.Attempts = append(doc.Attempts, attempt)

		if attempt.Chars < r.minLen {
			r.logger.Debug("recovery strategy below threshold",
				"source_ref", sourceRef, "strategy", s.Name(), "chars", attempt.Chars)
			continue
		}

		doc.Method = s.Name()
		doc.Text = text
		doc.OCRUsed = s.Name() == "ocr"
		r.logger.Info("text recovered",
			"source_ref", sourceRef, "strategy", s.Name(),
			"chars", attempt.Chars, "ocr_used", doc.OCRUsed)

		if r.artifacts != nil {
			path, err := r.artifacts.SaveRawText(sourceRef, text)
			if err != nil {
				r.logger.Warn("raw text artifact save failed", "source_ref", sourceRef, "error", err)
			} else {
				doc.ArtifactPath = path
			}
		}
		return doc, nil
	}

	doc.Failed = true
	return doc, fmt.Errorf("%w: %s", common.ErrExtractionFailed, sourceRef)
}
