package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

func textField(name string, critical bool) entity.Field {
	return entity.Field{Name: name, Type: constants.FieldTypeText, Critical: critical}
}

func TestEstimateFieldConfidence_EmptyValues(t *testing.T) {
	f := textField("notes", false)

	assert.Equal(t, 0.0, EstimateFieldConfidence(f, nil))
	assert.Equal(t, 0.0, EstimateFieldConfidence(f, ""))
	assert.Equal(t, 0.0, EstimateFieldConfidence(f, "   "))
	assert.Equal(t, 0.0, EstimateFieldConfidence(f, []any{}))
	assert.Equal(t, 0.0, EstimateFieldConfidence(f, map[string]any{}))
}

func TestEstimateFieldConfidence_StructuredTypes(t *testing.T) {
	tests := []struct {
		name  string
		field entity.Field
		value any
		want  float64
	}{
		{"barcode full match", entity.Field{Name: "barcode", Type: constants.FieldTypeBarcode}, "1234567890", 0.95},
		{"barcode with separators", entity.Field{Name: "barcode", Type: constants.FieldTypeBarcode}, "1234-5678-90", 0.75},
		{"barcode garbage", entity.Field{Name: "barcode", Type: constants.FieldTypeBarcode}, "abc", 0.60},
		{"email full match", entity.Field{Name: "email", Type: constants.FieldTypeEmail}, "user@example.com", 0.95},
		{"email missing tld", entity.Field{Name: "email", Type: constants.FieldTypeEmail}, "user@invalid", 0.75},
		{"phone full match", entity.Field{Name: "phone", Type: constants.FieldTypePhone}, "+1 (555) 123-4567", 0.95},
		{"url full match", entity.Field{Name: "url", Type: constants.FieldTypeURL}, "https://example.com/p", 0.95},
		{"url without scheme", entity.Field{Name: "url", Type: constants.FieldTypeURL}, "example.com", 0.75},
		{"iso date", entity.Field{Name: "date", Type: constants.FieldTypeDate}, "2024-03-15", 0.95},
		{"us date", entity.Field{Name: "date", Type: constants.FieldTypeDate}, "03/15/2024", 0.75},
		{"not a date", entity.Field{Name: "date", Type: constants.FieldTypeDate}, "sometime", 0.60},
		{"number as float", entity.Field{Name: "qty", Type: constants.FieldTypeNumber}, 12.5, 0.85},
		{"price with symbols", entity.Field{Name: "price", Type: constants.FieldTypePrice}, "$1,234.56", 0.85},
		{"number garbage", entity.Field{Name: "qty", Type: constants.FieldTypeNumber}, "abc", 0.60},
		{"boolean", entity.Field{Name: "ok", Type: constants.FieldTypeBoolean}, true, 0.85},
		{"table with rows", entity.Field{Name: "items", Type: constants.FieldTypeTable}, []any{map[string]any{"qty": 1.0}}, 0.75},
		{"table empty", entity.Field{Name: "items", Type: constants.FieldTypeTable}, []any{}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EstimateFieldConfidence(tt.field, tt.value), 1e-9)
		})
	}
}

func TestEstimateFieldConfidence_TextLengthBands(t *testing.T) {
	f := textField("description", false)
	tests := []struct {
		length int
		want   float64
	}{
		{5, 0.60},
		{15, 0.65},
		{25, 0.70},
		{60, 0.75},
		{120, 0.80},
	}
	for _, tt := range tests {
		got := EstimateFieldConfidence(f, strings.Repeat("a", tt.length))
		assert.InDelta(t, tt.want, got, 1e-9, "length %d", tt.length)
	}
}

func TestEstimateFieldConfidence_TextIsMonotonicInLength(t *testing.T) {
	f := textField("description", false)
	prev := 0.0
	for _, n := range []int{1, 8, 12, 22, 55, 110, 200} {
		got := EstimateFieldConfidence(f, strings.Repeat("x", n))
		assert.GreaterOrEqual(t, got, prev, "length %d", n)
		prev = got
	}
}

func TestEstimateFieldConfidence_CriticalBaseIsHigher(t *testing.T) {
	value := "short"
	normal := EstimateFieldConfidence(textField("name", false), value)
	critical := EstimateFieldConfidence(textField("name", true), value)
	assert.InDelta(t, 0.60, normal, 1e-9)
	assert.InDelta(t, 0.70, critical, 1e-9)
}

func TestEstimateFieldConfidence_BrandBonus(t *testing.T) {
	got := EstimateFieldConfidence(textField("brand", false), "ACME")
	assert.InDelta(t, 0.65, got, 1e-9)
}

func TestEstimateFieldConfidence_PatternMatchPinsToCap(t *testing.T) {
	f := entity.Field{
		Name:              "sku",
		Type:              constants.FieldTypeText,
		ValidationPattern: `^[A-Z]{3}-\d{4}$`,
	}
	assert.InDelta(t, 0.95, EstimateFieldConfidence(f, "ABC-1234"), 1e-9)
}

func TestEstimateFieldConfidence_NeverExceedsCap(t *testing.T) {
	// critical + longest band + mixed-content bonus would be 0.95 uncapped
	long := strings.Repeat("part 123, ", 15)
	got := EstimateFieldConfidence(textField("description", true), long)
	assert.InDelta(t, 0.95, got, 1e-9)

	for _, v := range []any{long, "1234567890", "user@example.com", strings.Repeat("Z", 200)} {
		for _, crit := range []bool{false, true} {
			assert.LessOrEqual(t, EstimateFieldConfidence(textField("f", crit), v), 0.95)
		}
	}
}
