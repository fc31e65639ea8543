package tenderid

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/entity"
)

// Identifier extraction patterns, tried in order. Labeled forms first,
// then the bare code shape (kept case-sensitive so prose never matches).
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tender\s+(?:no|number|id)\.?\s*[:\s]\s*([A-Za-z0-9][A-Za-z0-9\-/]+)`),
	regexp.MustCompile(`(?i)tender\s+reference\s*[:\s]\s*([A-Za-z0-9][A-Za-z0-9\-/]+)`),
	regexp.MustCompile(`(?i)bid\s+(?:no|number|id)\.?\s*[:\s]\s*([A-Za-z0-9][A-Za-z0-9\-/]+)`),
	regexp.MustCompile(`(?i)rf[qp]\s*[:\s]\s*([A-Za-z0-9][A-Za-z0-9\-/]+)`),
	regexp.MustCompile(`\b([A-Z]{2,10}[-/]\d{4}[-/]\d{3,6})\b`),
}

// Resolver walks a record's identifier through
// UNRESOLVED -> EXTRACTED | GENERATED -> FINALIZED. Generated values
// consume the counter store; the counter advances durably before the
// identifier is considered valid.
type Resolver struct {
	counters CounterStore
	degraded bool
	now      func() time.Time
	logger   *slog.Logger
}

func NewResolver(counters CounterStore, degradedMode bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		counters: counters,
		degraded: degradedMode,
		now:      time.Now,
		logger:   logger,
	}
}

// Resolve scans the given sources in priority order (callers pass email
// subject/body before document text) and extracts the first identifier
// match; with no match it generates a fresh TDR-<year>-<NNNN> value.
// A counter store failure aborts resolution unless degraded mode is
// explicitly enabled, in which case a timestamp-suffixed identifier is
// issued and flagged.
func (r *Resolver) Resolve(ctx context.Context, sources ...string) (entity.TenderIdentifier, error) {
	for _, text := range sources {
		if v := Extract(text); v != "" {
			r.logger.Info("tender id extracted", "value", v)
			return entity.TenderIdentifier{
				Value:      v,
				State:      constants.IDExtracted,
				Provenance: constants.ProvenanceExtracted,
			}, nil
		}
	}

	year := r.now().UTC().Year()
	next, err := r.counters.Next(ctx, year)
	if err != nil {
		if !r.degraded {
			return entity.TenderIdentifier{State: constants.IDUnresolved}, err
		}
		v := fmt.Sprintf("%s-%d-T%d", constants.TenderIDPrefix, year, r.now().UnixMilli())
		r.logger.Warn("counter store unusable, issuing degraded id", "value", v, "error", err)
		return entity.TenderIdentifier{
			Value:      v,
			State:      constants.IDGenerated,
			Provenance: constants.ProvenanceDegraded,
			Year:       year,
		}, nil
	}
	id := entity.TenderIdentifier{
		Value:      fmt.Sprintf("%s-%d-%04d", constants.TenderIDPrefix, year, next),
		State:      constants.IDGenerated,
		Provenance: constants.ProvenanceGenerated,
		Counter:    next,
		Year:       year,
	}
	r.logger.Info("tender id generated", "value", id.Value, "counter", next)
	return id, nil
}

// Extract returns the first identifier-shaped value in text, uppercased,
// or "" when none matches.
func Extract(text string) string {
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.ToUpper(strings.TrimSpace(m[1]))
		}
	}
	return ""
}
