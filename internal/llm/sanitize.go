package llm

import (
	"encoding/json"
	"strconv"
	"strings"
)

var textFields = []string{"technical_specs", "delivery", "project_name", "ministry"}

// SanitizeOptionalFields removes or normalizes fields that don't meet the
// schema so the overall document can still validate. Every field is
// optional here, so anything broken is droppable.
func SanitizeOptionalFields(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}

	var dropped []string

	for _, k := range textFields {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case string:
				s := strings.TrimSpace(t)
				if s == "" || strings.EqualFold(s, "null") {
					delete(m, k)
					dropped = append(dropped, k)
				} else {
					m[k] = s
				}
			case nil:
				delete(m, k)
				dropped = append(dropped, k)
			default:
				delete(m, k)
				dropped = append(dropped, k)
			}
		}
	}

	if v, ok := m["confidence"]; ok {
		switch t := v.(type) {
		case float64:
			if t < 0 || t > 1 {
				delete(m, "confidence")
				dropped = append(dropped, "confidence")
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil && f >= 0 && f <= 1 {
				m["confidence"] = f
			} else {
				delete(m, "confidence")
				dropped = append(dropped, "confidence")
			}
		default:
			delete(m, "confidence")
			dropped = append(dropped, "confidence")
		}
	}

	// remove unknown keys (additionalProperties is false)
	allowed := map[string]struct{}{
		"technical_specs": {}, "delivery": {}, "project_name": {},
		"ministry": {}, "confidence": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dropped, nil
}
