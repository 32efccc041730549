package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

func orderTemplate() entity.Template {
	zero := 0.0
	hundred := 100.0
	return entity.Template{
		Name: "order",
		Type: constants.TemplateTypeOrder,
		Fields: []entity.Field{
			{Name: "order_number", Type: constants.FieldTypeText, Required: true},
			{Name: "order_date", Type: constants.FieldTypeDate},
			{Name: "barcode", Type: constants.FieldTypeBarcode},
			{Name: "total", Type: constants.FieldTypePrice},
			{Name: "quantity", Type: constants.FieldTypeNumber, Min: &zero, Max: &hundred},
			{Name: "line_items", Type: constants.FieldTypeTable},
			{Name: "contact_email", Type: constants.FieldTypeEmail},
			{Name: "currency", Type: constants.FieldTypeCategory, AllowedValues: []string{"USD", "EUR"}},
			{Name: "sku", Type: constants.FieldTypeText, ValidationPattern: `^[A-Z]{2}-\d{4}$`},
		},
	}
}

func TestValidate_CleanDataPasses(t *testing.T) {
	res := Validate(orderTemplate(), map[string]any{
		"order_number":  "PO-1001",
		"order_date":    "2024-03-15",
		"barcode":       "1234567890",
		"total":         "49.99",
		"quantity":      12.0,
		"line_items":    []any{map[string]any{"description": "case", "qty": 12.0}},
		"contact_email": "buyer@example.com",
		"currency":      "USD",
		"sku":           "AB-1234",
	})
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidate_RequiredMissingIsError(t *testing.T) {
	res := Validate(orderTemplate(), map[string]any{"total": "10"})
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "order_number")
	assert.Contains(t, res.FieldIssues, "order_number")
}

func TestValidate_OptionalMissingIsFine(t *testing.T) {
	res := Validate(orderTemplate(), map[string]any{"order_number": "PO-1"})
	assert.True(t, res.IsValid)
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]any
		wantValid bool
		errText   string
		warnText  string
	}{
		{
			name:      "negative price warns but stays valid",
			data:      map[string]any{"order_number": "x", "total": -5.0},
			wantValid: true,
			warnText:  "negative price",
		},
		{
			name:      "unparseable price is an error",
			data:      map[string]any{"order_number": "x", "total": "around ten"},
			wantValid: false,
			errText:   "not a valid price",
		},
		{
			name:      "bad date is an error",
			data:      map[string]any{"order_number": "x", "order_date": "15/03/2024"},
			wantValid: false,
			errText:   "ISO date",
		},
		{
			name:      "barcode with letters is an error",
			data:      map[string]any{"order_number": "x", "barcode": "12AB5678"},
			wantValid: false,
			errText:   "non-digit",
		},
		{
			name:      "short all-digit barcode only warns",
			data:      map[string]any{"order_number": "x", "barcode": "12345"},
			wantValid: true,
			warnText:  "length 5",
		},
		{
			name:      "quantity above max is an error",
			data:      map[string]any{"order_number": "x", "quantity": 150.0},
			wantValid: false,
			errText:   "above maximum",
		},
		{
			name:      "table as string is an error",
			data:      map[string]any{"order_number": "x", "line_items": "two of each"},
			wantValid: false,
			errText:   "array",
		},
		{
			name:      "empty table warns",
			data:      map[string]any{"order_number": "x", "line_items": []any{}},
			wantValid: true,
			warnText:  "empty",
		},
		{
			name:      "bad email is an error",
			data:      map[string]any{"order_number": "x", "contact_email": "not-an-email"},
			wantValid: false,
			errText:   "email",
		},
		{
			name:      "value outside the allowed set is an error",
			data:      map[string]any{"order_number": "x", "currency": "BTC"},
			wantValid: false,
			errText:   "allowed values",
		},
		{
			name:      "allowed-set matching is case-insensitive",
			data:      map[string]any{"order_number": "x", "currency": "usd"},
			wantValid: true,
		},
		{
			name:      "pattern mismatch is an error",
			data:      map[string]any{"order_number": "x", "sku": "ABCD"},
			wantValid: false,
			errText:   "does not match pattern",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(orderTemplate(), tt.data)
			assert.Equal(t, tt.wantValid, res.IsValid)
			if tt.errText != "" {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.Errors[0], tt.errText)
			}
			if tt.warnText != "" {
				require.NotEmpty(t, res.Warnings)
				assert.Contains(t, res.Warnings[0], tt.warnText)
			}
		})
	}
}

func TestValidate_ExtraFieldsWarnNeverError(t *testing.T) {
	res := Validate(orderTemplate(), map[string]any{
		"order_number": "PO-1",
		"zebra":        "stripes",
		"alpha":        "first",
	})
	assert.True(t, res.IsValid)
	require.Len(t, res.Warnings, 2)
	// extras are reported in sorted order
	assert.Contains(t, res.Warnings[0], "alpha")
	assert.Contains(t, res.Warnings[1], "zebra")
}

func TestValidate_EmptyValueTreatedAsMissing(t *testing.T) {
	res := Validate(orderTemplate(), map[string]any{"order_number": "   "})
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "required")
}
