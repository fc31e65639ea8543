package classify

import (
	"regexp"
	"strings"

	"github.com/tendertrack/tender-agent/constants"
)

// Rule detects candidates for one field inside a paragraph. Pattern
// rules capture the value in group 1 (or the whole match when there is
// no group). matchFn rules implement keyword heuristics that regexes
// express poorly. Higher Priority outranks lower when a scalar field
// collects conflicting candidates.
type Rule struct {
	Name     string
	Field    constants.FieldName
	Priority int
	Pattern  *regexp.Regexp
	matchFn  func(text string) []match
}

type match struct {
	value  string
	offset int
}

func (r Rule) findAll(text string) []match {
	if r.matchFn != nil {
		return r.matchFn(text)
	}
	var out []match
	for _, loc := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}
		v := strings.TrimSpace(text[start:end])
		if v == "" {
			continue
		}
		out = append(out, match{value: v, offset: loc[0]})
	}
	return out
}

// DefaultRules is the ordered rule set for tender documents: labeled
// patterns carry higher priority than generic shape matches, so an
// explicit "Delivery Period:" beats a bare duration elsewhere.
func DefaultRules() []Rule {
	return []Rule{
		// delivery
		{Name: "delivery-labeled", Field: constants.FieldDelivery, Priority: 30,
			Pattern: regexp.MustCompile(`(?i)delivery(?:\s+period)?\s*[:\-]\s*([^,;\n]+)`)},
		{Name: "delivery-within", Field: constants.FieldDelivery, Priority: 20,
			Pattern: regexp.MustCompile(`(?i)delivery\s+within\s+(\d+\s*(?:days?|weeks?|months?))`)},
		{Name: "lead-time", Field: constants.FieldDelivery, Priority: 10,
			Pattern: regexp.MustCompile(`(?i)lead\s+time\s*[:\-]?\s*(\d+\s*(?:days?|weeks?|months?))`)},

		// deadline
		{Name: "deadline-labeled", Field: constants.FieldDeadline, Priority: 30,
			Pattern: regexp.MustCompile(`(?i)(?:submission|closing|last)\s+date\s*[:\-]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
		{Name: "deadline-generic", Field: constants.FieldDeadline, Priority: 20,
			Pattern: regexp.MustCompile(`(?i)deadline\s*[:\-]?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)},
		{Name: "date-before-label", Field: constants.FieldDeadline, Priority: 10,
			Pattern: regexp.MustCompile(`(?i)(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\s+(?:is\s+)?(?:the\s+)?(?:submission|closing|deadline)`)},

		// warranty
		{Name: "warranty-labeled", Field: constants.FieldWarranty, Priority: 30,
			Pattern: regexp.MustCompile(`(?i)(?:warranty|guarantee)\s*[:\-]?\s*(\d+\s*(?:years?|months?|days?))`)},
		{Name: "warranty-suffix", Field: constants.FieldWarranty, Priority: 20,
			Pattern: regexp.MustCompile(`(?i)(\d+\s*(?:years?|months?|days?))\s+(?:warranty|guarantee)`)},

		// voltage
		{Name: "voltage-labeled", Field: constants.FieldVoltage, Priority: 30,
			Pattern: regexp.MustCompile(`(?i)voltage(?:\s+(?:grade|rating))?\s*[:\-]?\s*(\d+(?:\.\d+)?\s*k?V)\b`)},
		{Name: "voltage-grade", Field: constants.FieldVoltage, Priority: 20,
			Pattern: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*k?V)\s+(?:grade|rating|voltage)`)},

		// quantities (list)
		{Name: "qty-labeled", Field: constants.FieldQuantity, Priority: 30,
			Pattern: regexp.MustCompile(`(?i)(?:quantity|qty\.?)\s*[:\-]?\s*(\d+(?:[.,]\d+)?\s*(?:meters?|mtrs?|pieces?|units?|nos?\.?|sets?|km))`)},
		{Name: "qty-of", Field: constants.FieldQuantity, Priority: 10,
			Pattern: regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?\s*(?:meters?|mtrs?|pieces?|units?|nos?\.?|sets?|km))\s+of\b`)},

		// standards (list); body kept case-sensitive so the word "is" never matches
		{Name: "standard-code", Field: constants.FieldStandard, Priority: 30,
			Pattern: regexp.MustCompile(`\b((?:IS|IEC|IEEE|BS|ASTM|ISO)\s+\d+(?:[/-]\d+)*)`)},

		// item descriptions (list)
		{Name: "item-keywords", Field: constants.FieldItemDescription, Priority: 10,
			matchFn: itemDescriptionMatch},

		// technical spec lines (list)
		{Name: "spec-keywords", Field: constants.FieldSpec, Priority: 10,
			matchFn: specLineMatch},
	}
}

var itemKeywords = []string{
	"cable", "conductor", "insulation", "sheath", "wire",
	"item", "description", "material", "product",
}

func itemDescriptionMatch(text string) []match {
	lower := strings.ToLower(text)
	for _, kw := range itemKeywords {
		if strings.Contains(lower, kw) {
			// headers are short or shouty; skip them
			if len(text) > 20 && text != strings.ToUpper(text) {
				return []match{{value: text, offset: 0}}
			}
			return nil
		}
	}
	return nil
}

var specKeywords = []string{
	"specification", "technical", "standard", "grade", "voltage",
	"conductor", "insulation", "sheath", "compliance", "conforms to", "as per",
}

var specTerms = []string{
	"conductor", "insulation", "sheath", "voltage", "grade",
	"specification", "compliance", "conforms", "as per",
}

var standardPrefixes = []string{"IS ", "IEC ", "IEEE ", "BS ", "ASTM ", "ISO "}

// specLineMatch mirrors the keyword-count heuristic: one spec keyword is
// enough, or a standard reference combined with a technical term.
func specLineMatch(text string) []match {
	lower := strings.ToLower(text)

	keywordHits := 0
	for _, kw := range specKeywords {
		if strings.Contains(lower, kw) {
			keywordHits++
		}
	}

	hasStandard := false
	for _, p := range standardPrefixes {
		if strings.Contains(text, p) {
			hasStandard = true
			break
		}
	}
	hasTerm := false
	for _, term := range specTerms {
		if strings.Contains(lower, term) {
			hasTerm = true
			break
		}
	}

	if keywordHits >= 1 || (hasStandard && hasTerm) {
		return []match{{value: text, offset: 0}}
	}
	return nil
}
