package llm

import (
	"context"

	"github.com/tendertrack/tender-agent/internal/entity"
)

// TenderFields is the normalized shape we want back from the LLM.
// Everything is optional: refinement polishes fields, it never supplies
// ground truth.
type TenderFields struct {
	TechnicalSpecs  string  `json:"technical_specs,omitempty"`
	Delivery        string  `json:"delivery,omitempty"`
	ProjectName     string  `json:"project_name,omitempty"`
	Ministry        string  `json:"ministry,omitempty"`
	ModelConfidence float32 `json:"confidence,omitempty"` // optional (0..1)
}

type RefineRequest struct {
	RawText   string // recovered document text, truncated by the prompt builder
	SourceRef string
	Fields    entity.ReducedFields // rule-extracted values, passed as context
}

// Refiner is the interface the pipeline depends on.
type Refiner interface {
	Refine(ctx context.Context, req RefineRequest) (TenderFields, []byte /*rawJSON*/, error)
}
