package refine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/llm"
)

// Merger applies LLM refinement to a record, fail-open: when the refiner
// errors or returns nothing usable, the record's rule-extracted fields
// pass through byte for byte and only the applied flag differs. Refined
// values live next to the raw ones, never in their place.
type Merger struct {
	refiner llm.Refiner
	logger  *slog.Logger
}

func NewMerger(refiner llm.Refiner, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{refiner: refiner, logger: logger}
}

// Apply refines rec in place. A nil refiner disables refinement entirely.
// Apply never returns an error: refinement is optional polish and its
// failure must not fail the document.
func (m *Merger) Apply(ctx context.Context, rec *entity.TenderRecord, rawText string) {
	if m.refiner == nil {
		return
	}

	fields, _, err := m.refiner.Refine(ctx, llm.RefineRequest{
		RawText:   rawText,
		SourceRef: rec.SourceRef,
		Fields:    rec.Fields,
	})
	if err != nil {
		m.logger.Warn("keeping raw fields",
			"source_ref", rec.SourceRef,
			"error", fmt.Errorf("%w: %v", common.ErrRefinementUnavailable, err))
		return
	}

	refined := entity.RefinedFields{
		Specs:    strings.TrimSpace(fields.TechnicalSpecs),
		Delivery: strings.TrimSpace(fields.Delivery),
		Project:  strings.TrimSpace(fields.ProjectName),
		Ministry: strings.TrimSpace(fields.Ministry),
	}
	if refined == (entity.RefinedFields{}) {
		m.logger.Info("refinement returned no usable fields", "source_ref", rec.SourceRef)
		return
	}

	rec.Refined = &refined
	rec.Degraded.RefinementApplied = true
	m.logger.Info("refinement applied",
		"source_ref", rec.SourceRef,
		"has_specs", refined.Specs != "",
		"has_project", refined.Project != "",
	)
}
