package classify

import (
	"reflect"
	"testing"

	"github.com/tendertrack/tender-agent/constants"
	"github.com/tendertrack/tender-agent/internal/entity"
	"github.com/tendertrack/tender-agent/internal/segment"
)

func candidatesFor(t *testing.T, text string, field constants.FieldName) []entity.FieldCandidate {
	t.Helper()
	c := NewClassifier(nil, nil)
	units := segment.Split(text, "test.pdf")
	var out []entity.FieldCandidate
	for _, cand := range c.Classify(units) {
		if cand.Field == field {
			out = append(out, cand)
		}
	}
	return out
}

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field constants.FieldName
		want  string // first candidate value after reduction ordering
	}{
		{"delivery labeled", "Delivery: 30 days from PO", constants.FieldDelivery, "30 days from PO"},
		{"delivery period", "Delivery Period: 45 days from date of order", constants.FieldDelivery, "45 days from date of order"},
		{"delivery within", "Material delivery within 60 days of order.", constants.FieldDelivery, "60 days"},
		{"lead time", "Lead time: 8 weeks", constants.FieldDelivery, "8 weeks"},
		{"deadline labeled", "Submission date: 12/05/2024", constants.FieldDeadline, "12/05/2024"},
		{"deadline generic", "Deadline: 30-06-2024", constants.FieldDeadline, "30-06-2024"},
		{"warranty labeled", "Warranty: 2 years", constants.FieldWarranty, "2 years"},
		{"guarantee", "Guarantee 18 months from commissioning", constants.FieldWarranty, "18 months"},
		{"warranty suffix", "All items carry 12 months warranty.", constants.FieldWarranty, "12 months"},
		{"voltage labeled", "Voltage grade: 11 kV", constants.FieldVoltage, "11 kV"},
		{"voltage suffix", "Cables of 1.1 kV grade", constants.FieldVoltage, "1.1 kV"},
		{"quantity labeled", "Quantity: 5000 meters", constants.FieldQuantity, "5000 meters"},
		{"standard code", "Conforming to IS 7098/1988", constants.FieldStandard, "IS 7098/1988"},
		{"standard iec", "Tested per IEC 60502", constants.FieldStandard, "IEC 60502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := candidatesFor(t, tt.text, tt.field)
			if len(cands) == 0 {
				t.Fatalf("no candidates for %q", tt.text)
			}
			if got := reduceScalar(cands); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// The word "is" must never produce a standard candidate; the code rule
// is deliberately case-sensitive.
func TestStandardRuleCaseSensitive(t *testing.T) {
	cands := candidatesFor(t, "The delivery is 30 days and the total is 5000.", constants.FieldStandard)
	if len(cands) != 0 {
		t.Errorf("lowercase 'is' produced standard candidates: %v", cands)
	}
}

func TestReduceScalarPriorityOrder(t *testing.T) {
	cands := []entity.FieldCandidate{
		{Field: constants.FieldDelivery, Value: "90 days", Paragraph: 0, Offset: 0, Priority: 10},
		{Field: constants.FieldDelivery, Value: "30 days from PO", Paragraph: 5, Offset: 12, Priority: 30},
		{Field: constants.FieldDelivery, Value: "60 days", Paragraph: 2, Offset: 0, Priority: 30},
	}
	// highest priority wins; among equals, the earlier paragraph
	if got := reduceScalar(cands); got != "60 days" {
		t.Errorf("reduceScalar() = %q, want %q", got, "60 days")
	}
}

func TestReduceScalarOffsetTieBreak(t *testing.T) {
	cands := []entity.FieldCandidate{
		{Field: constants.FieldWarranty, Value: "5 years", Paragraph: 1, Offset: 40, Priority: 30},
		{Field: constants.FieldWarranty, Value: "2 years", Paragraph: 1, Offset: 10, Priority: 30},
	}
	if got := reduceScalar(cands); got != "2 years" {
		t.Errorf("reduceScalar() = %q, want %q", got, "2 years")
	}
}

func TestReduceListDedupeAndOrder(t *testing.T) {
	cands := []entity.FieldCandidate{
		{Field: constants.FieldStandard, Value: "IS 5831", Paragraph: 3, Offset: 0},
		{Field: constants.FieldStandard, Value: "IEC 60502", Paragraph: 1, Offset: 8},
		{Field: constants.FieldStandard, Value: "is 5831", Paragraph: 7, Offset: 0}, // case-insensitive dup
		{Field: constants.FieldStandard, Value: "IS 7098", Paragraph: 1, Offset: 2},
	}
	got := reduceList(cands)
	want := []string{"IS 7098", "IEC 60502", "IS 5831"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reduceList() = %v, want %v", got, want)
	}
}

func TestClassifyAndReduceParagraph(t *testing.T) {
	text := "Delivery: 30 days from PO, Warranty: 2 years, Cable: 4 sqmm FR single core, IS 5831"
	c := NewClassifier(nil, nil)
	units := segment.Split(text, "tender.pdf")
	red := Reduce(c.Classify(units))

	if red.Delivery != "30 days from PO" {
		t.Errorf("Delivery = %q, want %q", red.Delivery, "30 days from PO")
	}
	if red.Warranty != "2 years" {
		t.Errorf("Warranty = %q, want %q", red.Warranty, "2 years")
	}
	found := false
	for _, s := range red.Standards {
		if s == "IS 5831" {
			found = true
		}
	}
	if !found {
		t.Errorf("Standards = %v, want it to contain %q", red.Standards, "IS 5831")
	}
}

func TestIsTenderDocument(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"tender invitation", "Invitation to tender for supply of 11 kV cables. Bids due by 30/06.", true},
		{"rfq email", "RFQ for procurement of conductor material, see attached BOQ.", true},
		{"newsletter", "Our quarterly newsletter covers team events and product updates.", false},
		{"invoice", "Invoice #42 for consulting services rendered in May.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTenderDocument(tt.text); got != tt.want {
				t.Errorf("IsTenderDocument(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
