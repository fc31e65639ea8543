package llm

// BuildTenderJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the provider as an output constraint and
// also use it locally to validate.
func BuildTenderJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"technical_specs": map[string]any{"type": "string"},
			"delivery":        map[string]any{"type": "string"},
			"project_name":    map[string]any{"type": "string"},
			"ministry":        map[string]any{"type": "string"},
			"confidence":      map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		// no required fields: refinement is best-effort and every field
		// may legitimately be absent from the document
		"required": []string{},
	}
}
