package constants

import "strings"

// TemplateType classifies what sort of document a template targets.
type TemplateType string

const (
	TemplateTypeAccessory TemplateType = "accessory"
	TemplateTypeOrder     TemplateType = "order"
	TemplateTypeInvoice   TemplateType = "invoice"
	TemplateTypeReceipt   TemplateType = "receipt"
	TemplateTypeLabel     TemplateType = "label"
	TemplateTypeForm      TemplateType = "form"
	TemplateTypeCustom    TemplateType = "custom"
)

var allTemplateTypes = []TemplateType{
	TemplateTypeAccessory,
	TemplateTypeOrder,
	TemplateTypeInvoice,
	TemplateTypeReceipt,
	TemplateTypeLabel,
	TemplateTypeForm,
	TemplateTypeCustom,
}

// ParseTemplateType canonicalizes input into a TemplateType. Unrecognized
// input falls back to custom.
func ParseTemplateType(input string) (TemplateType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, t := range allTemplateTypes {
		if normalized == string(t) {
			return t, true
		}
	}
	return TemplateTypeCustom, false
}

// IsValid reports whether t is one of the recognized template types.
func (t TemplateType) IsValid() bool {
	for _, known := range allTemplateTypes {
		if t == known {
			return true
		}
	}
	return false
}
