package constants

import "strings"

// FieldType enumerates the kinds of values a template field can hold.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypePrice    FieldType = "price"
	FieldTypeDate     FieldType = "date"
	FieldTypeBarcode  FieldType = "barcode"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeURL      FieldType = "url"
	FieldTypeTable    FieldType = "table"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeCategory FieldType = "category"
)

var allFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypePrice,
	FieldTypeDate,
	FieldTypeBarcode,
	FieldTypeEmail,
	FieldTypePhone,
	FieldTypeURL,
	FieldTypeTable,
	FieldTypeBoolean,
	FieldTypeCategory,
}

// FieldTypes returns the recognized field types as strings.
func FieldTypes() []string {
	result := make([]string, len(allFieldTypes))
	for i, t := range allFieldTypes {
		result[i] = string(t)
	}
	return result
}

// ParseFieldType canonicalizes input into a FieldType. Unrecognized input
// falls back to text.
func ParseFieldType(input string) (FieldType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, t := range allFieldTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return FieldTypeText, false
}

// IsValid reports whether t is one of the recognized field types.
func (t FieldType) IsValid() bool {
	for _, known := range allFieldTypes {
		if t == known {
			return true
		}
	}
	return false
}
