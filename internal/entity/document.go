package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionAttempt records one text-recovery strategy invocation.
type ExtractionAttempt struct {
	Strategy string        `json:"strategy"`
	Chars    int           `json:"chars"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"err,omitempty"`
}

// RecoveredDocument is the immutable result of text recovery for one
// source document. ParentRef is empty for top-level documents and holds
// the discovering document's source reference for linked ones.
type RecoveredDocument struct {
	ID        uuid.UUID           `json:"id"`
	SourceRef string              `json:"source_ref"`
	ParentRef string              `json:"parent_ref,omitempty"`
	Attempts  []ExtractionAttempt `json:"attempts"`
	Method    string              `json:"method"` // winning strategy name, "" when recovery failed
	Text      string              `json:"text"`
	OCRUsed   bool                `json:"ocr_used"`
	Failed    bool                `json:"failed"` // all strategies exhausted
	// ArtifactPath is the saved raw-text artifact, "" when no store is
	// configured or the save failed.
	ArtifactPath string    `json:"artifact_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ParagraphUnit is one addressable unit of segmented text. Index defines
// ordering within the originating document; units are never reordered.
type ParagraphUnit struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	SourceRef string `json:"source_ref"`
}
