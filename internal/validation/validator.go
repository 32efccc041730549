package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

// Result aggregates one validation pass. Errors make the data unusable;
// warnings flag oddities worth a human glance. Both keep template field
// order.
type Result struct {
	IsValid     bool                `json:"is_valid"`
	Errors      []string            `json:"errors,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	FieldIssues map[string][]string `json:"field_issues,omitempty"`
}

var (
	reDigits = regexp.MustCompile(`^\d+$`)
	reEmail  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	rePhone  = regexp.MustCompile(`^\+?[\d\s().-]{7,20}$`)
	reURL    = regexp.MustCompile(`^https?://\S+\.\S+`)
)

// Validate checks extracted data against every template field rule. Extra
// fields the template does not know produce warnings, never errors: a
// backend volunteering more than asked is suspicious, not broken.
func Validate(tpl entity.Template, data map[string]any) Result {
	res := Result{IsValid: true, FieldIssues: make(map[string][]string)}

	for _, f := range tpl.Fields {
		value, present := data[f.Name]
		populated := present && !isEmpty(value)
		if !populated {
			if f.Required {
				res.addError(f.Name, fmt.Sprintf("required field %q is missing", f.Name))
			}
			continue
		}
		validateField(&res, f, value)
	}

	var extras []string
	for name := range data {
		if _, known := tpl.Field(name); !known {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		res.addWarning(name, fmt.Sprintf("field %q is not part of template %q", name, tpl.Name))
	}

	return res
}

func validateField(res *Result, f entity.Field, value any) {
	s := stringify(value)

	switch f.Type {
	case constants.FieldTypeNumber:
		num, ok := parseNumber(value)
		if !ok {
			res.addError(f.Name, fmt.Sprintf("field %q: %q is not a number", f.Name, s))
			return
		}
		checkRange(res, f, num)

	case constants.FieldTypePrice:
		num, ok := parseNumber(value)
		if !ok {
			res.addError(f.Name, fmt.Sprintf("field %q: %q is not a valid price", f.Name, s))
			return
		}
		if num < 0 {
			res.addWarning(f.Name, fmt.Sprintf("field %q: negative price %v", f.Name, num))
		}
		checkRange(res, f, num)

	case constants.FieldTypeDate:
		if _, err := time.Parse("2006-01-02", s); err != nil {
			res.addError(f.Name, fmt.Sprintf("field %q: %q is not an ISO date (YYYY-MM-DD)", f.Name, s))
			return
		}

	case constants.FieldTypeBarcode:
		if !reDigits.MatchString(s) {
			res.addError(f.Name, fmt.Sprintf("field %q: barcode %q contains non-digit characters", f.Name, s))
			return
		}
		if len(s) < 8 || len(s) > 14 {
			res.addWarning(f.Name, fmt.Sprintf("field %q: barcode length %d is unusual (expected 8-14)", f.Name, len(s)))
		}

	case constants.FieldTypeEmail:
		if !reEmail.MatchString(s) {
			res.addError(f.Name, fmt.Sprintf("field %q: %q is not a valid email address", f.Name, s))
			return
		}

	case constants.FieldTypePhone:
		if !rePhone.MatchString(s) {
			res.addError(f.Name, fmt.Sprintf("field %q: %q is not a valid phone number", f.Name, s))
			return
		}

	case constants.FieldTypeURL:
		if !reURL.MatchString(s) {
			res.addError(f.Name, fmt.Sprintf("field %q: %q is not a valid URL", f.Name, s))
			return
		}

	case constants.FieldTypeTable:
		arr, ok := value.([]any)
		if !ok {
			res.addError(f.Name, fmt.Sprintf("field %q: expected an array of rows", f.Name))
			return
		}
		if len(arr) == 0 {
			res.addWarning(f.Name, fmt.Sprintf("field %q: table is empty", f.Name))
		}

	case constants.FieldTypeBoolean:
		if !isBoolean(value, s) {
			res.addError(f.Name, fmt.Sprintf("field %q: %q is not a boolean", f.Name, s))
			return
		}
	}

	if len(f.AllowedValues) > 0 && !contains(f.AllowedValues, s) {
		res.addError(f.Name, fmt.Sprintf("field %q: %q is not one of the allowed values", f.Name, s))
		return
	}

	if p, err := f.Pattern(); err == nil && p != nil {
		if !p.MatchString(s) {
			res.addError(f.Name, fmt.Sprintf("field %q: %q does not match pattern %q", f.Name, s, f.ValidationPattern))
		}
	}
}

func checkRange(res *Result, f entity.Field, num float64) {
	if f.Min != nil && num < *f.Min {
		res.addError(f.Name, fmt.Sprintf("field %q: %v is below minimum %v", f.Name, num, *f.Min))
	}
	if f.Max != nil && num > *f.Max {
		res.addError(f.Name, fmt.Sprintf("field %q: %v is above maximum %v", f.Name, num, *f.Max))
	}
}

func (r *Result) addError(field, msg string) {
	r.IsValid = false
	r.Errors = append(r.Errors, msg)
	r.FieldIssues[field] = append(r.FieldIssues[field], msg)
}

func (r *Result) addWarning(field, msg string) {
	r.Warnings = append(r.Warnings, msg)
	r.FieldIssues[field] = append(r.FieldIssues[field], msg)
}

func isEmpty(v any) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(tv) == ""
	case []any:
		return false // empty tables get a warning, not a skip
	default:
		return false
	}
}

func stringify(v any) string {
	switch tv := v.(type) {
	case string:
		return strings.TrimSpace(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(tv)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", tv))
	}
}

func parseNumber(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case int:
		return float64(tv), true
	case string:
		cleaned := strings.TrimSpace(strings.TrimPrefix(tv, "$"))
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isBoolean(v any, s string) bool {
	if _, ok := v.(bool); ok {
		return true
	}
	lower := strings.ToLower(s)
	return lower == "true" || lower == "false" || lower == "yes" || lower == "no"
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
