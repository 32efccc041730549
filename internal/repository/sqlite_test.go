package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "results.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleResult(docID uuid.UUID) *entity.ExtractionResult {
	r := entity.NewExtractionResult(docID, "ollama:llava")
	r.TemplateName = "accessory-label"
	r.Strategy = "hybrid"
	r.ModelName = "llava:13b"
	r.ExtractedData = map[string]any{
		"product_name": "Widget Case",
		"barcode":      "1234567890",
		"line_items":   []any{map[string]any{"qty": 2.0}},
	}
	r.ConfidenceScores = map[string]float64{"product_name": 0.8, "barcode": 0.95}
	r.LatencyMS = 812
	r.Attempts = 2
	r.ValidationWarnings = []string{"field \"color\" is not part of template \"accessory-label\""}
	return r
}

func TestSQLiteRepository_SaveAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	want := sampleResult(uuid.New())
	require.NoError(t, repo.SaveResult(ctx, want))

	got, err := repo.GetResult(ctx, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.DocumentID, got.DocumentID)
	assert.Equal(t, want.TemplateName, got.TemplateName)
	assert.Equal(t, want.Provider, got.Provider)
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.ExtractedData, got.ExtractedData)
	assert.Equal(t, want.ConfidenceScores, got.ConfidenceScores)
	assert.Equal(t, want.LatencyMS, got.LatencyMS)
	assert.Equal(t, want.Attempts, got.Attempts)
	assert.Equal(t, want.ValidationWarnings, got.ValidationWarnings)
	assert.True(t, got.ValidationPassed)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.GetResult(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteRepository_SaveIsIdempotentOnID(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	r := sampleResult(uuid.New())
	require.NoError(t, repo.SaveResult(ctx, r))

	// re-saving after review flagging updates in place
	r.ValidationPassed = false
	r.ValidationErrors = []string{"required field \"barcode\" is missing"}
	r.FlagForReview("validation failed with 1 error(s)")
	require.NoError(t, repo.SaveResult(ctx, r))

	got, err := repo.GetResult(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, got.ValidationPassed)
	assert.True(t, got.RequiresManualReview)

	all, err := repo.ListAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteRepository_ListByDocument(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	docA, docB := uuid.New(), uuid.New()
	require.NoError(t, repo.SaveResult(ctx, sampleResult(docA)))
	require.NoError(t, repo.SaveResult(ctx, sampleResult(docA)))
	require.NoError(t, repo.SaveResult(ctx, sampleResult(docB)))

	results, err := repo.ListByDocument(ctx, docA)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, docA, r.DocumentID)
	}
}

func TestSQLiteRepository_ListNeedingReview(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	clean := sampleResult(uuid.New())
	flagged := sampleResult(uuid.New())
	flagged.FlagForReview("overall confidence 0.55 below 0.70")

	require.NoError(t, repo.SaveResult(ctx, clean))
	require.NoError(t, repo.SaveResult(ctx, flagged))

	queue, err := repo.ListNeedingReview(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, flagged.ID, queue[0].ID)
	assert.Equal(t, "overall confidence 0.55 below 0.70", queue[0].ReviewReason)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), common.RepositoryConfig{Driver: "mongodb"}, testLogger())
	assert.Error(t, err)
}
