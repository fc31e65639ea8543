package llm

import (
	"encoding/json"
	"testing"
)

func TestSanitizeOptionalFields(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantDropped int
		check       func(t *testing.T, m map[string]any)
	}{
		{
			name:        "clean document untouched",
			in:          `{"technical_specs":"4 sqmm FR","delivery":"30 days","confidence":0.9}`,
			wantDropped: 0,
			check: func(t *testing.T, m map[string]any) {
				if m["technical_specs"] != "4 sqmm FR" {
					t.Errorf("technical_specs = %v", m["technical_specs"])
				}
			},
		},
		{
			name:        "empty and null strings dropped",
			in:          `{"delivery":"  ","ministry":"null","project_name":"Phase II"}`,
			wantDropped: 2,
			check: func(t *testing.T, m map[string]any) {
				if _, ok := m["delivery"]; ok {
					t.Error("blank delivery kept")
				}
				if _, ok := m["ministry"]; ok {
					t.Error("literal null string kept")
				}
				if m["project_name"] != "Phase II" {
					t.Errorf("project_name = %v", m["project_name"])
				}
			},
		},
		{
			name:        "json null dropped",
			in:          `{"delivery":null}`,
			wantDropped: 1,
			check: func(t *testing.T, m map[string]any) {
				if _, ok := m["delivery"]; ok {
					t.Error("null delivery kept")
				}
			},
		},
		{
			name:        "non-string field dropped",
			in:          `{"delivery":30}`,
			wantDropped: 1,
			check:       func(t *testing.T, m map[string]any) {},
		},
		{
			name:        "string confidence coerced",
			in:          `{"confidence":"0.75"}`,
			wantDropped: 0,
			check: func(t *testing.T, m map[string]any) {
				if m["confidence"] != 0.75 {
					t.Errorf("confidence = %v, want 0.75", m["confidence"])
				}
			},
		},
		{
			name:        "out of range confidence dropped",
			in:          `{"confidence":1.5}`,
			wantDropped: 1,
			check: func(t *testing.T, m map[string]any) {
				if _, ok := m["confidence"]; ok {
					t.Error("out-of-range confidence kept")
				}
			},
		},
		{
			name:        "unknown keys removed",
			in:          `{"delivery":"30 days","reasoning":"because","page":4}`,
			wantDropped: 2,
			check: func(t *testing.T, m map[string]any) {
				if _, ok := m["reasoning"]; ok {
					t.Error("unknown key kept")
				}
			},
		},
		{
			name:        "field values trimmed",
			in:          `{"delivery":"  30 days  "}`,
			wantDropped: 0,
			check: func(t *testing.T, m map[string]any) {
				if m["delivery"] != "30 days" {
					t.Errorf("delivery = %q, want trimmed", m["delivery"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, dropped, err := SanitizeOptionalFields([]byte(tt.in))
			if err != nil {
				t.Fatalf("SanitizeOptionalFields() error = %v", err)
			}
			if len(dropped) != tt.wantDropped {
				t.Errorf("dropped %v, want %d entries", dropped, tt.wantDropped)
			}
			var m map[string]any
			if err := json.Unmarshal(out, &m); err != nil {
				t.Fatalf("sanitized output not valid JSON: %v", err)
			}
			tt.check(t, m)

			if err := ValidateTenderJSON(out); err != nil {
				t.Errorf("sanitized output fails schema validation: %v", err)
			}
		})
	}
}

func TestValidateTenderJSON(t *testing.T) {
	if err := ValidateTenderJSON([]byte(`{"delivery":"30 days","confidence":0.5}`)); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
	if err := ValidateTenderJSON([]byte(`{}`)); err != nil {
		t.Errorf("empty document rejected, all fields are optional: %v", err)
	}
	if err := ValidateTenderJSON([]byte(`{"delivery":30}`)); err == nil {
		t.Error("numeric delivery accepted")
	}
	if err := ValidateTenderJSON([]byte(`{"reasoning":"x"}`)); err == nil {
		t.Error("unknown property accepted")
	}
	if err := ValidateTenderJSON([]byte(`{"confidence":2}`)); err == nil {
		t.Error("confidence above maximum accepted")
	}
	if err := ValidateTenderJSON([]byte(`not json at all`)); err == nil {
		t.Error("non-JSON payload accepted")
	}
}
