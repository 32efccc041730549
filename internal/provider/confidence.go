package provider

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
)

// Backends report no native confidence, so every populated field gets a
// deterministic heuristic score here. The function is pure: field metadata
// and value in, score out. Nothing is ever treated as certain; the cap is
// 0.95 pending external verification.

const (
	confidenceCap     = 0.95
	partialMatchScore = 0.75
	baseCritical      = 0.70
	baseNormal        = 0.60
	numericDefault    = 0.85
	tableDefault      = 0.75
)

var (
	reBarcode       = regexp.MustCompile(`^\d{8,14}$`)
	reBarcodeLoose  = regexp.MustCompile(`^[\d\s-]{8,20}$`)
	reEmail         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	rePhone         = regexp.MustCompile(`^\+?[\d\s().-]{7,20}$`)
	reURL           = regexp.MustCompile(`^https?://\S+$`)
	reISODate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reUppercaseWord = regexp.MustCompile(`^[A-Z][A-Z0-9&\s-]{1,19}$`)
)

// EstimateFieldConfidence scores one extracted value against its field
// definition, in [0, 0.95].
func EstimateFieldConfidence(field entity.Field, value any) float64 {
	s := valueAsString(value)
	if isEmptyValue(value, s) {
		return 0.0
	}

	switch field.Type {
	case constants.FieldTypeBarcode:
		return structuredScore(field, s, reBarcode, reBarcodeLoose)
	case constants.FieldTypeEmail:
		return structuredScore(field, s, reEmail, regexp.MustCompile(`@`))
	case constants.FieldTypePhone:
		return structuredScore(field, s, rePhone, regexp.MustCompile(`\d{7,}`))
	case constants.FieldTypeURL:
		return structuredScore(field, s, reURL, regexp.MustCompile(`\.\w{2,}`))
	case constants.FieldTypeDate:
		if reISODate.MatchString(s) {
			return confidenceCap
		}
		if _, err := parseLooseDate(s); err == nil {
			return partialMatchScore
		}
		return textScore(field, s)
	case constants.FieldTypeNumber, constants.FieldTypePrice, constants.FieldTypeBoolean:
		if _, isNumeric := asFloat(value); isNumeric || field.Type == constants.FieldTypeBoolean {
			return numericDefault
		}
		return textScore(field, s)
	case constants.FieldTypeTable:
		if arr, ok := value.([]any); ok && len(arr) > 0 {
			return tableDefault
		}
		return 0.0
	default:
		return textScore(field, s)
	}
}

// structuredScore pins fully-matching structured fields to the cap and
// partially-matching ones to 0.75; anything else falls back to text scoring.
func structuredScore(field entity.Field, s string, full, loose *regexp.Regexp) float64 {
	if full.MatchString(s) {
		return confidenceCap
	}
	if loose.MatchString(s) {
		return partialMatchScore
	}
	return textScore(field, s)
}

func textScore(field entity.Field, s string) float64 {
	// An explicit template pattern that matches is as strong a signal as a
	// built-in structural match.
	if p, err := field.Pattern(); err == nil && p != nil {
		if p.MatchString(s) {
			return confidenceCap
		}
	}

	score := baseNormal
	if field.Critical {
		score = baseCritical
	}

	switch n := len(s); {
	case n > 100:
		score += 0.20
	case n > 50:
		score += 0.15
	case n > 20:
		score += 0.10
	case n > 10:
		score += 0.05
	}

	// Brand-like all-caps tokens and long mixed descriptions read more like
	// real label text than noise.
	if reUppercaseWord.MatchString(s) {
		score += 0.05
	}
	if len(s) > 30 && strings.ContainsAny(s, "0123456789") && strings.ContainsAny(s, ",;/") {
		score += 0.05
	}

	if score > confidenceCap {
		score = confidenceCap
	}
	return score
}

func valueAsString(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case int:
		return strconv.Itoa(tv)
	case bool:
		return strconv.FormatBool(tv)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", tv))
	}
}

func isEmptyValue(v any, s string) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return s == ""
	case []any:
		return len(tv) == 0
	case map[string]any:
		return len(tv) == 0
	default:
		return false
	}
}

func asFloat(v any) (float64, bool) {
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

func parseLooseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
		"Jan 2, 2006",
		"2 January 2006",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
