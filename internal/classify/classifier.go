package classify

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/entity"
)

// Classifier applies the rule set over an immutable paragraph sequence.
// It never mutates units and produces zero candidates for a field when
// no rule fires; callers treat absence as unknown.
type Classifier struct {
	rules  []Rule
	logger *slog.Logger
}

func NewClassifier(rules []Rule, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules, logger: logger}
}

// Classify runs every rule over every paragraph. A rule may fire zero or
// more times per paragraph; all firings are kept as candidates.
func (c *Classifier) Classify(units []entity.ParagraphUnit) []entity.FieldCandidate {
	var out []entity.FieldCandidate
	for _, u := range units {
		for _, r := range c.rules {
			for _, m := range r.findAll(u.Text) {
				out = append(out, entity.FieldCandidate{
					Field:     r.Field,
					Value:     m.value,
					Paragraph: u.Index,
					SourceRef: u.SourceRef,
					Rule:      r.Name,
					Priority:  r.Priority,
					Offset:    m.offset,
				})
			}
		}
	}
	c.logger.Debug("classification complete", "paragraphs", len(units), "candidates", len(out))
	return out
}

// Reduce collapses candidates into final field values. Scalars resolve
// by rule priority first, then lowest paragraph index, then earliest
// match offset. Lists keep unique values in first-occurrence order. The
// scalar/list split follows the field registry in constants.
func Reduce(cands []entity.FieldCandidate) entity.ReducedFields {
	byField := map[constants.FieldName][]entity.FieldCandidate{}
	for _, cand := range cands {
		byField[cand.Field] = append(byField[cand.Field], cand)
	}

	scalars := map[constants.FieldName]string{}
	lists := map[constants.FieldName][]string{}
	for _, f := range constants.AllFields() {
		if constants.IsListField(f) {
			lists[f] = reduceList(byField[f])
		} else {
			scalars[f] = reduceScalar(byField[f])
		}
	}

	return entity.ReducedFields{
		Delivery:         scalars[constants.FieldDelivery],
		Deadline:         scalars[constants.FieldDeadline],
		Warranty:         scalars[constants.FieldWarranty],
		Voltage:          scalars[constants.FieldVoltage],
		Quantities:       lists[constants.FieldQuantity],
		Standards:        lists[constants.FieldStandard],
		ItemDescriptions: lists[constants.FieldItemDescription],
		SpecLines:        lists[constants.FieldSpec],
	}
}

func reduceScalar(cands []entity.FieldCandidate) string {
	if len(cands) == 0 {
		return ""
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Priority != cands[j].Priority {
			return cands[i].Priority > cands[j].Priority
		}
		if cands[i].Paragraph != cands[j].Paragraph {
			return cands[i].Paragraph < cands[j].Paragraph
		}
		return cands[i].Offset < cands[j].Offset
	})
	return cands[0].Value
}

func reduceList(cands []entity.FieldCandidate) []string {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Paragraph != cands[j].Paragraph {
			return cands[i].Paragraph < cands[j].Paragraph
		}
		return cands[i].Offset < cands[j].Offset
	})
	seen := map[string]struct{}{}
	var out []string
	for _, cand := range cands {
		key := strings.ToLower(strings.TrimSpace(cand.Value))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cand.Value)
	}
	return out
}
