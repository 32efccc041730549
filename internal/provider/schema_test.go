package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

func TestParseFieldJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]any
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"product_name": "Widget", "price": 9.99}`,
			want:  map[string]any{"product_name": "Widget", "price": 9.99},
		},
		{
			name:  "fenced json",
			input: "```json\n{\"barcode\": \"12345678\"}\n```",
			want:  map[string]any{"barcode": "12345678"},
		},
		{
			name:  "chatter around the object",
			input: "Here is the result:\n{\"color\": \"black\"}\nHope that helps!",
			want:  map[string]any{"color": "black"},
		},
		{
			name:  "nulls are dropped",
			input: `{"product_name": "Widget", "material": null}`,
			want:  map[string]any{"product_name": "Widget"},
		},
		{
			name:    "no object at all",
			input:   "I could not read the image.",
			wantErr: true,
		},
		{
			name:    "broken json",
			input:   `{"product_name": `,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFieldJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildTemplateJSONSchema_IsLooseOnPresence(t *testing.T) {
	tpl := entity.Template{
		Name: "label",
		Type: constants.TemplateTypeLabel,
		Fields: []entity.Field{
			{Name: "product_name", Type: constants.FieldTypeText, Required: true},
			{Name: "price", Type: constants.FieldTypePrice},
			{Name: "line_items", Type: constants.FieldTypeTable},
		},
	}
	schema := BuildTemplateJSONSchema(tpl)

	// presence errors belong to the validation service, never the schema
	_, hasRequired := schema["required"]
	assert.False(t, hasRequired)
	assert.Equal(t, true, schema["additionalProperties"])

	// missing fields and extras both pass
	data, _ := json.Marshal(map[string]any{"price": "9.99", "unexpected": "x"})
	assert.NoError(t, ValidateAgainstSchema(schema, data))

	// prices arrive as numbers or strings depending on the backend
	data, _ = json.Marshal(map[string]any{"price": 9.99})
	assert.NoError(t, ValidateAgainstSchema(schema, data))

	// a table that is not an array is a shape error
	data, _ = json.Marshal(map[string]any{"line_items": "row1, row2"})
	assert.Error(t, ValidateAgainstSchema(schema, data))
}

func TestBuildTemplateJSONSchema_EnumForAllowedValues(t *testing.T) {
	tpl := entity.Template{
		Name: "order",
		Type: constants.TemplateTypeOrder,
		Fields: []entity.Field{
			{Name: "currency", Type: constants.FieldTypeCategory, AllowedValues: []string{"USD", "EUR"}},
		},
	}
	schema := BuildTemplateJSONSchema(tpl)

	data, _ := json.Marshal(map[string]any{"currency": "USD"})
	assert.NoError(t, ValidateAgainstSchema(schema, data))

	data, _ = json.Marshal(map[string]any{"currency": "XXX"})
	assert.Error(t, ValidateAgainstSchema(schema, data))
}
