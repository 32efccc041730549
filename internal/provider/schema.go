package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

// BuildTemplateJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the shape a backend should return for a template.
// The schema is deliberately loose on presence: missing required fields are
// reported by the validation service inside the result, not thrown here.
// Extra properties are allowed; they surface as warnings downstream.
func BuildTemplateJSONSchema(tpl entity.Template) map[string]any {
	props := make(map[string]any, len(tpl.Fields))
	for _, f := range tpl.Fields {
		props[f.Name] = schemaPropForField(f)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
}

func schemaPropForField(f entity.Field) map[string]any {
	switch f.Type {
	case constants.FieldTypeNumber, constants.FieldTypePrice:
		// Backends disagree on whether amounts are numbers or strings.
		return map[string]any{"type": []any{"number", "string"}}
	case constants.FieldTypeBarcode:
		return map[string]any{"type": []any{"string", "number"}}
	case constants.FieldTypeBoolean:
		return map[string]any{"type": []any{"boolean", "string"}}
	case constants.FieldTypeTable:
		return map[string]any{"type": "array"}
	default:
		prop := map[string]any{"type": "string"}
		if len(f.AllowedValues) > 0 {
			enum := make([]any, len(f.AllowedValues))
			for i, v := range f.AllowedValues {
				enum[i] = v
			}
			prop["enum"] = enum
		}
		return prop
	}
}

// ValidateAgainstSchema validates data against schemaMap.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ParseFieldJSON pulls the field map out of raw model output: strips
// markdown code fences, isolates the outermost object, unmarshals.
func ParseFieldJSON(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling field map: %w", err)
	}

	// Null means "could not read"; drop it so empty-field scoring applies.
	for k, v := range data {
		if v == nil {
			delete(data, k)
		}
	}
	return data, nil
}
