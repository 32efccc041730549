package entity

import (
	"fmt"
	"strings"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
)

// Template is a named, declarative schema of fields to extract plus the
// natural-language instruction used to elicit them. Templates are value
// objects; name uniqueness is the registry's job, not the template's.
type Template struct {
	Name         string                 `json:"name"`
	Type         constants.TemplateType `json:"template_type"`
	Fields       []Field                `json:"fields"`
	Prompt       string                 `json:"prompt"`
	OutputSchema string                 `json:"output_schema,omitempty"`
}

// Validate checks structural invariants: a name, at least one field, every
// field valid, no duplicate field names.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return common.WrapError(common.ErrInvalidTemplate, "template name is required")
	}
	if !t.Type.IsValid() {
		return common.WrapError(common.ErrInvalidTemplate,
			fmt.Sprintf("template %q: unknown type %q", t.Name, t.Type))
	}
	if len(t.Fields) == 0 {
		return common.WrapError(common.ErrInvalidTemplate,
			fmt.Sprintf("template %q: at least one field is required", t.Name))
	}
	seen := make(map[string]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return common.WrapError(common.ErrInvalidTemplate,
				fmt.Sprintf("template %q: duplicate field %q", t.Name, f.Name))
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Field returns the field with the given name.
func (t Template) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields returns the fields flagged required, in template order.
func (t Template) RequiredFields() []Field {
	var out []Field
	for _, f := range t.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// FieldNames returns every field name in template order.
func (t Template) FieldNames() []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.Name
	}
	return out
}

// BuildPrompt assembles the instruction sent to a provider: the template's
// own prompt, the field list with per-field hints, and output hygiene rules.
func (t Template) BuildPrompt() string {
	var b strings.Builder
	b.WriteString(t.Prompt)
	b.WriteString("\n\nExtract the following fields:\n")
	for _, f := range t.Fields {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		b.WriteString(string(f.Type))
		if f.Required {
			b.WriteString(", required")
		}
		b.WriteString(")")
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		if len(f.AllowedValues) > 0 {
			b.WriteString(" Allowed values: ")
			b.WriteString(strings.Join(f.AllowedValues, ", "))
			b.WriteString(".")
		}
		b.WriteString("\n")
	}
	if t.OutputSchema != "" {
		b.WriteString("\nOutput shape: ")
		b.WriteString(t.OutputSchema)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn ONLY a single JSON object keyed by field name.")
	b.WriteString(" Use ISO-8601 dates (YYYY-MM-DD).")
	b.WriteString(" Never output null; omit fields you cannot read.")
	b.WriteString(" Do not use markdown code blocks.")
	return b.String()
}
