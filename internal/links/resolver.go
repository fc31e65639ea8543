package links

import (
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	httpURL = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	wwwURL  = regexp.MustCompile(`www\.[^\s<>"{}|\\^` + "`" + `\[\]]+`)
)

// Resolver discovers candidate PDF URLs inside a recovered document:
// plain URLs in the text plus link annotations read via pdfcpu. It only
// yields references; downloading is the Fetcher's job.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve returns deduplicated, normalized candidate URLs. path may be
// empty when the original bytes are gone; annotation scanning is then
// skipped. Malformed URLs are dropped silently: discovery is
// best-effort, not validation.
func (r *Resolver) Resolve(text, path string) []string {
	var found []string
	found = append(found, URLsFromText(text)...)

	if path != "" {
		annot, err := AnnotationURLs(path)
		if err != nil {
			r.logger.Debug("annotation scan failed", "path", path, "error", err)
		} else {
			found = append(found, annot...)
		}
	}

	seen := make(map[string]struct{}, len(found))
	var out []string
	for _, raw := range found {
		u, ok := Normalize(raw)
		if !ok {
			continue
		}
		if !looksLikePDF(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// URLsFromText extracts raw URL-shaped strings from recovered text.
func URLsFromText(text string) []string {
	var urls []string
	urls = append(urls, httpURL.FindAllString(text, -1)...)
	urls = append(urls, wwwURL.FindAllString(text, -1)...)
	return urls
}

// AnnotationURLs reads link annotations embedded in the PDF structure.
func AnnotationURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pageAnnots, err := api.Annotations(f, nil, model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, annots := range pageAnnots {
		linkMap, ok := annots[model.AnnLink]
		if !ok {
			continue
		}
		for _, renderer := range linkMap.Map {
			if link, ok := renderer.(model.LinkAnnotation); ok && link.URI != "" {
				urls = append(urls, link.URI)
			}
		}
	}
	return urls, nil
}

// Normalize strips trailing punctuation, upgrades bare www hosts to
// https, and rejects anything url.Parse cannot read.
func Normalize(raw string) (string, bool) {
	raw = strings.Trim(raw, `.,;:()[]{}"'`)
	if strings.HasPrefix(raw, "www.") {
		raw = "https://" + raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// looksLikePDF keeps URLs whose path ends in .pdf, plus likely
// specification-document links the way tender portals name them.
func looksLikePDF(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	p := strings.ToLower(parsed.Path)
	if strings.HasSuffix(p, ".pdf") {
		return true
	}
	lu := strings.ToLower(u)
	return strings.Contains(lu, "specification") || strings.Contains(lu, "spec") || strings.Contains(lu, "download")
}
