package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExtractionResult carries everything one extraction attempt produced: the
// raw field map, per-field confidence, which backend did the work, and the
// validation/review annotations added as it moves through the pipeline.
// Treat it as immutable once returned by the engine.
type ExtractionResult struct {
	ID                   uuid.UUID          `json:"id"`
	DocumentID           uuid.UUID          `json:"document_id"`
	TemplateName         string             `json:"template_name"`
	ExtractedData        map[string]any     `json:"extracted_data"`
	RawText              string             `json:"raw_text,omitempty"`
	Provider             string             `json:"provider"`
	Strategy             string             `json:"strategy,omitempty"`
	ModelName            string             `json:"model_name,omitempty"`
	ConfidenceScores     map[string]float64 `json:"confidence_scores"`
	LatencyMS            int64              `json:"latency_ms"`
	CostUSD              float64            `json:"cost_usd"`
	Attempts             int                `json:"attempts"`
	ValidationPassed     bool               `json:"validation_passed"`
	ValidationErrors     []string           `json:"validation_errors,omitempty"`
	ValidationWarnings   []string           `json:"validation_warnings,omitempty"`
	RequiresManualReview bool               `json:"requires_manual_review"`
	ReviewReason         string             `json:"review_reason,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
}

// NewExtractionResult creates a result for one provider attempt.
func NewExtractionResult(documentID uuid.UUID, provider string) *ExtractionResult {
	return &ExtractionResult{
		ID:               uuid.New(),
		DocumentID:       documentID,
		Provider:         provider,
		ExtractedData:    make(map[string]any),
		ConfidenceScores: make(map[string]float64),
		ValidationPassed: true,
		CreatedAt:        time.Now().UTC(),
	}
}

// OverallConfidence is the mean confidence over fields that were actually
// populated. Unpopulated optional fields never depress the average; a result
// with nothing populated scores 0.
func (r *ExtractionResult) OverallConfidence() float64 {
	var sum float64
	var n int
	for name, score := range r.ConfidenceScores {
		if !r.FieldPopulated(name) {
			continue
		}
		sum += score
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// FieldPopulated reports whether the named field holds a non-empty value.
func (r *ExtractionResult) FieldPopulated(name string) bool {
	v, ok := r.ExtractedData[name]
	if !ok || v == nil {
		return false
	}
	switch tv := v.(type) {
	case string:
		return strings.TrimSpace(tv) != ""
	case []any:
		return len(tv) > 0
	case map[string]any:
		return len(tv) > 0
	default:
		return true
	}
}

// FlagForReview marks the result for human verification.
func (r *ExtractionResult) FlagForReview(reason string) {
	r.RequiresManualReview = true
	if r.ReviewReason == "" {
		r.ReviewReason = reason
	} else if reason != "" {
		r.ReviewReason = fmt.Sprintf("%s; %s", r.ReviewReason, reason)
	}
}
