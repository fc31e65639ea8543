package llm

import "strings"

const maxPromptText = 4000

// BuildSystemPrompt composes the system message with the formatting rules
// the schema expects.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a tender document analyst. Return ONLY JSON that matches the provided JSON Schema.",
		"For 'technical_specs', rewrite the raw specification lines into one clean, deduplicated summary paragraph. Keep every number, unit, voltage grade and standard reference exactly as written.",
		"For 'delivery', restate the delivery terms in one short phrase.",
		"For 'project_name', name the project or works the tender belongs to, if the text states one.",
		"For 'ministry', name the issuing ministry, department or utility, if the text states one.",
		"Never invent values. If the document does not state a field, omit it.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the rule-extracted fields plus a truncated
// slice of the recovered text.
func BuildUserPrompt(req RefineRequest) string {
	var b strings.Builder
	b.WriteString("Source: ")
	b.WriteString(req.SourceRef)
	b.WriteString("\n")

	if len(req.Fields.SpecLines) > 0 {
		b.WriteString("\nExtracted specification lines:\n")
		for _, line := range req.Fields.SpecLines {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if req.Fields.Delivery != "" {
		b.WriteString("Extracted delivery: ")
		b.WriteString(req.Fields.Delivery)
		b.WriteString("\n")
	}
	if len(req.Fields.Standards) > 0 {
		b.WriteString("Extracted standards: ")
		b.WriteString(strings.Join(req.Fields.Standards, ", "))
		b.WriteString("\n")
	}

	raw := strings.TrimSpace(req.RawText)
	b.WriteString("\nDocument text (first ~4k chars):\n")
	if len(raw) > maxPromptText {
		b.WriteString(raw[:maxPromptText])
		b.WriteString("\n...(truncated)")
	} else {
		b.WriteString(raw)
	}
	return b.String()
}
