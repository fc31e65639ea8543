package constants

// FieldName identifies a structured field extracted from a tender document.
type FieldName string

const (
	FieldSpec            FieldName = "spec"
	FieldDeadline        FieldName = "deadline"
	FieldQuantity        FieldName = "quantity"
	FieldWarranty        FieldName = "warranty"
	FieldVoltage         FieldName = "voltage"
	FieldStandard        FieldName = "standard"
	FieldItemDescription FieldName = "item_description"
	FieldDelivery        FieldName = "delivery"
)

var allFields = []FieldName{
	FieldSpec,
	FieldDeadline,
	FieldQuantity,
	FieldWarranty,
	FieldVoltage,
	FieldStandard,
	FieldItemDescription,
	FieldDelivery,
}

// listFields accumulate every unique match; the rest reduce to a single value.
var listFields = map[FieldName]struct{}{
	FieldSpec:            {},
	FieldQuantity:        {},
	FieldStandard:        {},
	FieldItemDescription: {},
}

func AllFields() []FieldName {
	out := make([]FieldName, len(allFields))
	copy(out, allFields)
	return out
}

// IsListField reports whether a field keeps all candidates rather than
// reducing to a single value.
func IsListField(f FieldName) bool {
	_, ok := listFields[f]
	return ok
}
