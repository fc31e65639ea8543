package classify

import "strings"

var tenderKeywords = []string{
	"tender", "bid", "bidding", "rfq", "rfp", "request for quotation",
	"request for proposal", "procurement", "supply", "delivery",
	"technical specification", "boq", "bill of quantities",
	"warranty", "delivery deadline", "submission date",
}

var strongIndicators = []string{
	"tender", "bid", "bidding", "rfq", "rfp",
	"procurement", "technical specification", "boq",
}

// IsTenderDocument screens text (email subject/body or recovered PDF
// text) for tender-ness before the pipeline commits to full extraction.
func IsTenderDocument(text string) bool {
	lower := strings.ToLower(text)

	keywordMatches := 0
	for _, kw := range tenderKeywords {
		if strings.Contains(lower, kw) {
			keywordMatches++
		}
	}
	strongMatches := 0
	for _, ind := range strongIndicators {
		if strings.Contains(lower, ind) {
			strongMatches++
		}
	}

	switch {
	case strongMatches >= 2:
		return true
	case keywordMatches >= 3:
		return true
	case strongMatches >= 1 && keywordMatches >= 2:
		return true
	}
	return false
}
