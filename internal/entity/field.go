package entity

import (
	"fmt"
	"regexp"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
)

// Field describes one value to extract and how to validate it. Fields are
// value objects: compare them with Equal, not pointer identity.
type Field struct {
	Name              string              `json:"name"`
	Type              constants.FieldType `json:"type"`
	Description       string              `json:"description,omitempty"`
	Required          bool                `json:"required"`
	Critical          bool                `json:"critical,omitempty"`
	ValidationPattern string              `json:"validation_pattern,omitempty"`
	Min               *float64            `json:"min,omitempty"`
	Max               *float64            `json:"max,omitempty"`
	AllowedValues     []string            `json:"allowed_values,omitempty"`
}

// Validate checks the field's own invariants: a name, a known type, a
// compilable pattern, and min <= max when both are set.
func (f Field) Validate() error {
	if f.Name == "" {
		return common.WrapError(common.ErrInvalidTemplate, "field name is required")
	}
	if !f.Type.IsValid() {
		return common.WrapError(common.ErrInvalidTemplate,
			fmt.Sprintf("field %q: unknown type %q", f.Name, f.Type))
	}
	if f.ValidationPattern != "" {
		if _, err := regexp.Compile(f.ValidationPattern); err != nil {
			return common.WrapError(common.ErrInvalidTemplate,
				fmt.Sprintf("field %q: pattern does not compile: %v", f.Name, err))
		}
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return common.WrapError(common.ErrInvalidTemplate,
			fmt.Sprintf("field %q: min %v greater than max %v", f.Name, *f.Min, *f.Max))
	}
	return nil
}

// Pattern returns the compiled validation pattern, or nil when none is set.
// Validate must have passed for the returned error to be nil.
func (f Field) Pattern() (*regexp.Regexp, error) {
	if f.ValidationPattern == "" {
		return nil, nil
	}
	return regexp.Compile(f.ValidationPattern)
}

// Equal reports value equality with another field.
func (f Field) Equal(other Field) bool {
	if f.Name != other.Name || f.Type != other.Type ||
		f.Description != other.Description ||
		f.Required != other.Required || f.Critical != other.Critical ||
		f.ValidationPattern != other.ValidationPattern {
		return false
	}
	if !floatPtrEqual(f.Min, other.Min) || !floatPtrEqual(f.Max, other.Max) {
		return false
	}
	if len(f.AllowedValues) != len(other.AllowedValues) {
		return false
	}
	for i, v := range f.AllowedValues {
		if other.AllowedValues[i] != v {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
