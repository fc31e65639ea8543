package extract

import (
	"context"

	"github.com/tendertrack/tender-agent/internal/entity"
)

// Strategy is one way of turning a document into text. Strategies are
// tried in registry order; returning empty text (or an error) hands off
// to the next one.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

// TextRecoverer is Stage 1 of the pipeline: document -> RecoveredDocument.
type TextRecoverer interface {
	Recover(ctx context.Context, path, sourceRef, parentRef string) (entity.RecoveredDocument, error)
}
