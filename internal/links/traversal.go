package links

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/extract"
	"github.com/tendertrack/tender-agent/internal/fetch"
)

// Traverser recursively recovers documents referenced by hyperlinks. An
// explicit visited set plus depth and total-document ceilings guarantee
// termination on cyclic or pathological link graphs.
type Traverser struct {
	Fetcher   fetch.Fetcher
	Recoverer extract.TextRecoverer
	Resolver  *Resolver
	MaxDepth  int
	MaxDocs   int
	WorkDir   string
	Logger    *slog.Logger
}

func NewTraverser(f fetch.Fetcher, rec extract.TextRecoverer, res *Resolver, maxDepth, maxDocs int, workDir string, logger *slog.Logger) *Traverser {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if maxDocs <= 0 {
		maxDocs = 16
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Traverser{
		Fetcher:   f,
		Recoverer: rec,
		Resolver:  res,
		MaxDepth:  maxDepth,
		MaxDocs:   maxDocs,
		WorkDir:   workDir,
		Logger:    logger,
	}
}

type queued struct {
	url       string
	parentRef string
	depth     int
}

// Traverse walks the link graph under a recovered parent document,
// breadth-first. A failing branch (fetch or recovery) is dropped and
// counted; siblings and the parent are unaffected.
func (t *Traverser) Traverse(ctx context.Context, parent entity.RecoveredDocument, parentPath string) (docs []entity.RecoveredDocument, dropped int) {
	visited := map[string]struct{}{}
	if u, ok := Normalize(parent.SourceRef); ok {
		visited[u] = struct{}{}
	}

	var queue []queued
	for _, u := range t.Resolver.Resolve(parent.Text, parentPath) {
		queue = append(queue, queued{url: u, parentRef: parent.SourceRef, depth: 1})
	}

	for len(queue) > 0 {
		if ctx.Err() != nil {
			return docs, dropped
		}
		item := queue[0]
		queue = queue[1:]

		if item.depth > t.MaxDepth || len(docs) >= t.MaxDocs {
			continue
		}
		if _, seen := visited[item.url]; seen {
			continue
		}
		visited[item.url] = struct{}{}

		doc, path, ok := t.recoverOne(ctx, item)
		if !ok {
			dropped++
			continue
		}
		docs = append(docs, doc)

		if item.depth < t.MaxDepth {
			for _, u := range t.Resolver.Resolve(doc.Text, path) {
				queue = append(queue, queued{url: u, parentRef: doc.SourceRef, depth: item.depth + 1})
			}
		}
		if path != "" {
			_ = os.Remove(path)
		}
	}
	return docs, dropped
}

func (t *Traverser) recoverOne(ctx context.Context, item queued) (entity.RecoveredDocument, string, bool) {
	body, err := t.Fetcher.Fetch(ctx, item.url)
	if err != nil {
		t.Logger.Warn("link branch dropped", "url", item.url, "error", err)
		return entity.RecoveredDocument{}, "", false
	}

	tmp, err := os.CreateTemp(t.WorkDir, "linked-*.pdf")
	if err != nil {
		t.Logger.Warn("link branch dropped", "url", item.url, "error", err)
		return entity.RecoveredDocument{}, "", false
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		t.Logger.Warn("link branch dropped", "url", item.url, "error", err)
		return entity.RecoveredDocument{}, "", false
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return entity.RecoveredDocument{}, "", false
	}

	doc, err := t.Recoverer.Recover(ctx, tmp.Name(), item.url, item.parentRef)
	if err != nil {
		_ = os.Remove(tmp.Name())
		t.Logger.Warn("linked document recovery failed", "url", item.url, "error", err)
		return entity.RecoveredDocument{}, "", false
	}
	t.Logger.Info("linked document recovered",
		"url", item.url, "parent", item.parentRef,
		"method", doc.Method, "chars", len(doc.Text))
	return doc, filepath.Clean(tmp.Name()), true
}
