package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallConfidence_IgnoresUnpopulatedFields(t *testing.T) {
	r := NewExtractionResult(uuid.New(), "stub")
	r.ExtractedData = map[string]any{
		"a": "value",
		"b": "value",
		"c": "value",
		"d": "",  // empty, never counted
		"e": nil, // nil, never counted
	}
	r.ConfidenceScores = map[string]float64{
		"a": 0.9, "b": 0.8, "c": 0.7, "d": 0.0, "e": 0.0,
	}
	assert.InDelta(t, 0.8, r.OverallConfidence(), 1e-9)
}

func TestOverallConfidence_EmptyResultIsZero(t *testing.T) {
	r := NewExtractionResult(uuid.New(), "stub")
	assert.Equal(t, 0.0, r.OverallConfidence())

	r.ConfidenceScores = map[string]float64{"a": 0.0}
	assert.Equal(t, 0.0, r.OverallConfidence())
}

func TestFieldPopulated(t *testing.T) {
	r := NewExtractionResult(uuid.New(), "stub")
	r.ExtractedData = map[string]any{
		"text":        "x",
		"blank":       "   ",
		"zero":        0.0,
		"false":       false,
		"table":       []any{1.0},
		"empty_table": []any{},
		"object":      map[string]any{"k": "v"},
	}

	assert.True(t, r.FieldPopulated("text"))
	assert.False(t, r.FieldPopulated("blank"))
	assert.True(t, r.FieldPopulated("zero"), "numeric zero is still a value")
	assert.True(t, r.FieldPopulated("false"), "boolean false is still a value")
	assert.True(t, r.FieldPopulated("table"))
	assert.False(t, r.FieldPopulated("empty_table"))
	assert.True(t, r.FieldPopulated("object"))
	assert.False(t, r.FieldPopulated("missing"))
}

func TestFlagForReview_AccumulatesReasons(t *testing.T) {
	r := NewExtractionResult(uuid.New(), "stub")
	require.False(t, r.RequiresManualReview)

	r.FlagForReview("validation failed with 2 error(s)")
	r.FlagForReview("overall confidence 0.55 below 0.70")

	assert.True(t, r.RequiresManualReview)
	assert.Equal(t, "validation failed with 2 error(s); overall confidence 0.55 below 0.70", r.ReviewReason)
}

func TestNewDocumentFromBytes_RejectsEmpty(t *testing.T) {
	_, err := NewDocumentFromBytes(nil, "image/png")
	assert.Error(t, err)

	doc, err := NewDocumentFromBytes([]byte("data"), "IMAGE/PNG ")
	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.ContentType)
	assert.True(t, doc.Resolvable())
	assert.EqualValues(t, 4, doc.SizeBytes)
}

func TestNewDocumentFromFile_Missing(t *testing.T) {
	_, err := NewDocumentFromFile("/nonexistent/label.png")
	assert.Error(t, err)
}

func TestMarkProcessed(t *testing.T) {
	doc, err := NewDocumentFromBytes([]byte("data"), "image/png")
	require.NoError(t, err)
	require.False(t, doc.Processed)

	doc.MarkProcessed()
	assert.True(t, doc.Processed)
	require.NotNil(t, doc.ProcessedAt)
}
