package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/tendertrack/tender-agent/constants"
)

// FieldCandidate is one value proposed for a named field, with provenance
// back to the paragraph that produced it.
type FieldCandidate struct {
	Field     constants.FieldName `json:"field"`
	Value     string              `json:"value"`
	Paragraph int                 `json:"paragraph"`
	SourceRef string              `json:"source_ref"`
	Rule      string              `json:"rule"`
	Priority  int                 `json:"priority"`
	Offset    int                 `json:"offset"` // match start within the paragraph
}

// TenderIdentifier is the resolved identifier for a record. Counter is
// the persisted counter value consumed when provenance is GENERATED.
type TenderIdentifier struct {
	Value      string               `json:"value"`
	State      constants.IDState    `json:"state"`
	Provenance constants.Provenance `json:"provenance"`
	Counter    int                  `json:"counter,omitempty"`
	Year       int                  `json:"year,omitempty"`
}

// ReducedFields is the per-field reduction of all candidates: scalars
// resolved by rule priority, lists deduplicated in first-occurrence order.
type ReducedFields struct {
	SpecLines        []string `json:"raw_specs"`
	Delivery         string   `json:"delivery,omitempty"`
	Deadline         string   `json:"deadline,omitempty"`
	Warranty         string   `json:"warranty,omitempty"`
	Voltage          string   `json:"voltage,omitempty"`
	Quantities       []string `json:"quantities"`
	Standards        []string `json:"standards"`
	ItemDescriptions []string `json:"item_descriptions"`
}

// RefinedFields holds the optional LLM-polished versions of text fields.
// They are stored alongside the raw values, never in place of them.
type RefinedFields struct {
	Specs    string `json:"technical_specs,omitempty"`
	Delivery string `json:"delivery,omitempty"`
	Project  string `json:"project_name,omitempty"`
	Ministry string `json:"ministry,omitempty"`
}

// Degraded flags record which parts of the pipeline fell back, so a
// record is never a silent empty output.
type Degraded struct {
	TextRecoveryFailed  bool `json:"text_recovery_failed,omitempty"`
	IdentifierDegraded  bool `json:"identifier_degraded,omitempty"`
	LinkBranchesDropped int  `json:"link_branches_dropped,omitempty"`
	RefinementApplied   bool `json:"refinement_applied"`
}

// TenderRecord is the final structured output for one top-level source
// document. Append-only during pipeline execution, finalized at the end.
type TenderRecord struct {
	ID          uuid.UUID        `json:"id"`
	Identifier  TenderIdentifier `json:"identifier"`
	SourceRef   string           `json:"source_ref"`
	LinkedRefs  []string         `json:"linked_refs"`
	Fields      ReducedFields    `json:"fields"`
	Refined     *RefinedFields   `json:"refined,omitempty"`
	Candidates  []FieldCandidate `json:"candidates"`
	RawTextRef  string           `json:"raw_text_ref,omitempty"`
	Degraded    Degraded         `json:"degraded"`
	ProcessedAt time.Time        `json:"processed_at"`
}
