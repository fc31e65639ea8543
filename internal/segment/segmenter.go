package segment

import (
	"regexp"
	"strings"

	"github.com/tendertrack/tender-agent/internal/entity"
)

var (
	blankRun     = regexp.MustCompile(`\n\s*\n`)
	bulletMarker = regexp.MustCompile(`^\s*(?:[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}*+-]|\d+[.)]|[a-z][.)])\s+`)
	hyphenWrap   = regexp.MustCompile(`(\pL)-\n\s*(\pL)`)
	spaceRun     = regexp.MustCompile(`[ \t]+`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
)

// Split turns recovered text into ordered paragraph units. It is a pure
// function: same text in, same units out, and it is idempotent over its
// own output re-joined with blank lines.
//
// Rules: hyphen-broken words are re-joined across line wraps, paragraphs
// break on blank-line runs and on bullet/numbered markers, and
// intra-paragraph whitespace collapses to single spaces.
func Split(text, sourceRef string) []entity.ParagraphUnit {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	text = controlChars.ReplaceAllString(text, "")
	text = hyphenWrap.ReplaceAllString(text, "$1$2")

	var parts []string
	for _, block := range blankRun.Split(text, -1) {
		parts = append(parts, splitBullets(block)...)
	}

	units := make([]entity.ParagraphUnit, 0, len(parts))
	for _, p := range parts {
		p = normalize(p)
		if p == "" {
			continue
		}
		units = append(units, entity.ParagraphUnit{
			Index:     len(units),
			Text:      p,
			SourceRef: sourceRef,
		})
	}
	return units
}

// Join renders units back to text with blank-line separators. Split(Join(u))
// yields u again, which is what makes segmentation idempotent.
func Join(units []entity.ParagraphUnit) string {
	lines := make([]string, len(units))
	for i, u := range units {
		lines[i] = u.Text
	}
	return strings.Join(lines, "\n\n")
}

// splitBullets breaks a block at bullet and numbered-list markers so each
// list item becomes its own unit.
func splitBullets(block string) []string {
	lines := strings.Split(block, "\n")
	var out []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, line := range lines {
		if bulletMarker.MatchString(line) {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(line)
	}
	flush()
	return out
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\n", " ")
	p = spaceRun.ReplaceAllString(p, " ")
	return strings.TrimSpace(p)
}
