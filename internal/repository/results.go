package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

// ResultRepository persists extraction results. Implementations exist for
// sqlite (single-node default) and postgres.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *entity.ExtractionResult) error
	GetResult(ctx context.Context, id uuid.UUID) (*entity.ExtractionResult, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.ExtractionResult, error)
	ListNeedingReview(ctx context.Context) ([]*entity.ExtractionResult, error)
	ListAll(ctx context.Context, limit int) ([]*entity.ExtractionResult, error)
	Close() error
}

// New builds the repository named by the config driver.
func New(ctx context.Context, cfg common.RepositoryConfig, logger *slog.Logger) (ResultRepository, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteRepository(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresRepository(ctx, cfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown results driver %q (want sqlite or postgres)", cfg.Driver)
	}
}

// row mirrors one results record with the JSON columns still encoded.
type row struct {
	id                 string
	documentID         string
	templateName       string
	extractedData      []byte
	rawText            string
	provider           string
	strategy           string
	modelName          string
	confidenceScores   []byte
	latencyMS          int64
	costUSD            float64
	attempts           int
	validationPassed   bool
	validationErrors   []byte
	validationWarnings []byte
	requiresReview     bool
	reviewReason       string
	createdAt          string
}

func encodeRow(r *entity.ExtractionResult) (row, error) {
	data, err := json.Marshal(r.ExtractedData)
	if err != nil {
		return row{}, fmt.Errorf("encode extracted data: %w", err)
	}
	scores, err := json.Marshal(r.ConfidenceScores)
	if err != nil {
		return row{}, fmt.Errorf("encode confidence scores: %w", err)
	}
	verrs, err := json.Marshal(r.ValidationErrors)
	if err != nil {
		return row{}, fmt.Errorf("encode validation errors: %w", err)
	}
	vwarns, err := json.Marshal(r.ValidationWarnings)
	if err != nil {
		return row{}, fmt.Errorf("encode validation warnings: %w", err)
	}
	return row{
		id:                 r.ID.String(),
		documentID:         r.DocumentID.String(),
		templateName:       r.TemplateName,
		extractedData:      data,
		rawText:            r.RawText,
		provider:           r.Provider,
		strategy:           r.Strategy,
		modelName:          r.ModelName,
		confidenceScores:   scores,
		latencyMS:          r.LatencyMS,
		costUSD:            r.CostUSD,
		attempts:           r.Attempts,
		validationPassed:   r.ValidationPassed,
		validationErrors:   verrs,
		validationWarnings: vwarns,
		requiresReview:     r.RequiresManualReview,
		reviewReason:       r.ReviewReason,
		createdAt:          r.CreatedAt.Format(timeLayout),
	}, nil
}

func (r row) decode() (*entity.ExtractionResult, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return nil, fmt.Errorf("decode result id: %w", err)
	}
	docID, err := uuid.Parse(r.documentID)
	if err != nil {
		return nil, fmt.Errorf("decode document id: %w", err)
	}
	out := &entity.ExtractionResult{
		ID:                   id,
		DocumentID:           docID,
		TemplateName:         r.templateName,
		RawText:              r.rawText,
		Provider:             r.provider,
		Strategy:             r.strategy,
		ModelName:            r.modelName,
		LatencyMS:            r.latencyMS,
		CostUSD:              r.costUSD,
		Attempts:             r.attempts,
		ValidationPassed:     r.validationPassed,
		RequiresManualReview: r.requiresReview,
		ReviewReason:         r.reviewReason,
	}
	if err := json.Unmarshal(r.extractedData, &out.ExtractedData); err != nil {
		return nil, fmt.Errorf("decode extracted data: %w", err)
	}
	if err := json.Unmarshal(r.confidenceScores, &out.ConfidenceScores); err != nil {
		return nil, fmt.Errorf("decode confidence scores: %w", err)
	}
	if len(r.validationErrors) > 0 {
		if err := json.Unmarshal(r.validationErrors, &out.ValidationErrors); err != nil {
			return nil, fmt.Errorf("decode validation errors: %w", err)
		}
	}
	if len(r.validationWarnings) > 0 {
		if err := json.Unmarshal(r.validationWarnings, &out.ValidationWarnings); err != nil {
			return nil, fmt.Errorf("decode validation warnings: %w", err)
		}
	}
	if out.CreatedAt, err = parseTime(r.createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	return out, nil
}
