package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/classify"
	"github.com/tendertrack/tender-agent/internal/common"
	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/extract"
	"github.com/tendertrack/tender-agent/internal/links"
	"github.com/tendertrack/tender-agent/internal/refine"
	"github.com/tendertrack/tender-agent/internal/repository"
	"github.com/tendertrack/tender-agent/internal/segment"
	"github.com/tendertrack/tender-agent/internal/tenderid"
)

// Source identifies one top-level document to process. Email metadata is
// optional; when present it is scanned for a tender identifier before
// the document text.
type Source struct {
	Path         string
	SourceRef    string // defaults to Path
	EmailSubject string
	EmailBody    string
}

// Processor coordinates text recovery, link traversal, segmentation,
// classification, identifier resolution, refinement and persistence for
// one document. Traverser, Merger and Repo are optional.
type Processor struct {
	Recoverer  extract.TextRecoverer
	Traverser  *links.Traverser
	Classifier *classify.Classifier
	Resolver   *tenderid.Resolver
	Merger     *refine.Merger
	Repo       repository.TenderRepository
	Logger     *slog.Logger
}

func NewProcessor(rec extract.TextRecoverer, trav *links.Traverser, cls *classify.Classifier,
	res *tenderid.Resolver, merger *refine.Merger, repo repository.TenderRepository,
	logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Recoverer:  rec,
		Traverser:  trav,
		Classifier: cls,
		Resolver:   res,
		Merger:     merger,
		Repo:       repo,
		Logger:     logger,
	}
}

// Process runs the full pipeline for src and returns the finalized
// record. Text recovery failure degrades the record rather than aborting
// it; identifier resolution failure aborts, since a record without an
// identifier is unusable.
func (p *Processor) Process(ctx context.Context, src Source) (*entity.TenderRecord, error) {
	if src.SourceRef == "" {
		src.SourceRef = src.Path
	}
	start := time.Now()
	p.Logger.Info("pipeline.start", "source_ref", src.SourceRef)

	doc, err := p.Recoverer.Recover(ctx, src.Path, src.SourceRef, "")
	recoveryFailed := false
	if err != nil {
		if !errors.Is(err, common.ErrExtractionFailed) {
			return nil, err
		}
		recoveryFailed = true
		p.Logger.Warn("pipeline.recovery_failed, continuing degraded", "source_ref", src.SourceRef)
	}
	if !recoveryFailed {
		p.Logger.Debug("pipeline.stage", "source_ref", src.SourceRef,
			"status", constants.JobStatusRecovered, "method", doc.Method)
	}

	var (
		linkedDocs []entity.RecoveredDocument
		dropped    int
	)
	if p.Traverser != nil && doc.Text != "" {
		linkedDocs, dropped = p.Traverser.Traverse(ctx, doc, src.Path)
	}

	units := segmentAll(doc, linkedDocs)

	var (
		wg       sync.WaitGroup
		cands    []entity.FieldCandidate
		ident    entity.TenderIdentifier
		identErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cands = p.Classifier.Classify(units)
	}()
	go func() {
		defer wg.Done()
		ident, identErr = p.Resolver.Resolve(ctx, src.EmailSubject, src.EmailBody, doc.Text)
	}()
	wg.Wait()
	if identErr != nil {
		p.Logger.Error("pipeline.identifier_failed", "source_ref", src.SourceRef, "error", identErr)
		return nil, identErr
	}

	rec := &entity.TenderRecord{
		ID:          uuid.New(),
		Identifier:  ident,
		SourceRef:   src.SourceRef,
		LinkedRefs:  linkedRefs(linkedDocs),
		Fields:      classify.Reduce(cands),
		Candidates:  cands,
		RawTextRef:  doc.ArtifactPath,
		ProcessedAt: time.Now().UTC(),
	}
	rec.Degraded.TextRecoveryFailed = recoveryFailed
	rec.Degraded.IdentifierDegraded = ident.Provenance == constants.ProvenanceDegraded
	rec.Degraded.LinkBranchesDropped = dropped
	p.Logger.Debug("pipeline.stage", "source_ref", src.SourceRef,
		"status", constants.JobStatusFieldsOK, "candidates", len(cands))

	if p.Merger != nil {
		p.Merger.Apply(ctx, rec, combinedText(doc, linkedDocs))
	}

	rec.Identifier.State = constants.IDFinalized

	if p.Repo != nil {
		if err := p.Repo.Save(ctx, rec); err != nil {
			return rec, err
		}
	}

	p.Logger.Info("pipeline.done",
		"source_ref", src.SourceRef,
		"tender_id", rec.Identifier.Value,
		"provenance", rec.Identifier.Provenance,
		"linked_docs", len(linkedDocs),
		"dropped_branches", dropped,
		"candidates", len(cands),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// segmentAll segments the parent then each linked document, renumbering
// units into one global order so candidate tie-breaks stay stable.
func segmentAll(parent entity.RecoveredDocument, linked []entity.RecoveredDocument) []entity.ParagraphUnit {
	var out []entity.ParagraphUnit
	appendUnits := func(text, sourceRef string) {
		for _, u := range segment.Split(text, sourceRef) {
			u.Index = len(out)
			out = append(out, u)
		}
	}
	appendUnits(parent.Text, parent.SourceRef)
	for _, d := range linked {
		appendUnits(d.Text, d.SourceRef)
	}
	return out
}

func linkedRefs(docs []entity.RecoveredDocument) []string {
	refs := make([]string, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, d.SourceRef)
	}
	return refs
}

func combinedText(parent entity.RecoveredDocument, linked []entity.RecoveredDocument) string {
	parts := []string{parent.Text}
	for _, d := range linked {
		parts = append(parts, d.Text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}
