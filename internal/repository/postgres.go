package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS extraction_results (
	id                  TEXT PRIMARY KEY,
	document_id         TEXT NOT NULL,
	template_name       TEXT NOT NULL,
	extracted_data      TEXT NOT NULL,
	raw_text            TEXT NOT NULL DEFAULT '',
	provider            TEXT NOT NULL,
	strategy            TEXT NOT NULL DEFAULT '',
	model_name          TEXT NOT NULL DEFAULT '',
	confidence_scores   TEXT NOT NULL,
	latency_ms          BIGINT NOT NULL DEFAULT 0,
	cost_usd            DOUBLE PRECISION NOT NULL DEFAULT 0,
	attempts            INTEGER NOT NULL DEFAULT 0,
	validation_passed   BOOLEAN NOT NULL DEFAULT TRUE,
	validation_errors   TEXT NOT NULL DEFAULT '[]',
	validation_warnings TEXT NOT NULL DEFAULT '[]',
	requires_review     BOOLEAN NOT NULL DEFAULT FALSE,
	review_reason       TEXT NOT NULL DEFAULT '',
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_document ON extraction_results(document_id);
CREATE INDEX IF NOT EXISTS idx_results_review ON extraction_results(requires_review);
`

// PostgresRepository stores results in postgres via a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresRepository(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresRepository, error) {
	if dsn == "" {
		return nil, errors.New("postgres driver selected but RESULTS_POSTGRES_DSN is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}
	logger.Info("repository.postgres.open")
	return &PostgresRepository{pool: pool, log: logger}, nil
}

func (p *PostgresRepository) SaveResult(ctx context.Context, result *entity.ExtractionResult) error {
	r, err := encodeRow(result)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO extraction_results (`+resultColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			extracted_data=EXCLUDED.extracted_data,
			validation_passed=EXCLUDED.validation_passed,
			validation_errors=EXCLUDED.validation_errors,
			validation_warnings=EXCLUDED.validation_warnings,
			requires_review=EXCLUDED.requires_review,
			review_reason=EXCLUDED.review_reason`,
		r.id, r.documentID, r.templateName, string(r.extractedData), r.rawText,
		r.provider, r.strategy, r.modelName, string(r.confidenceScores), r.latencyMS,
		r.costUSD, r.attempts, r.validationPassed, string(r.validationErrors),
		string(r.validationWarnings), r.requiresReview, r.reviewReason, r.createdAt)
	if err != nil {
		return fmt.Errorf("save result %s: %w", result.ID, err)
	}
	return nil
}

func (p *PostgresRepository) GetResult(ctx context.Context, id uuid.UUID) (*entity.ExtractionResult, error) {
	rw, err := scanPg(p.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM extraction_results WHERE id = $1`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: result %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rw.decode()
}

func (p *PostgresRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.ExtractionResult, error) {
	return p.list(ctx,
		`SELECT `+resultColumns+` FROM extraction_results
		 WHERE document_id = $1 ORDER BY created_at`, documentID.String())
}

func (p *PostgresRepository) ListNeedingReview(ctx context.Context) ([]*entity.ExtractionResult, error) {
	return p.list(ctx,
		`SELECT `+resultColumns+` FROM extraction_results
		 WHERE requires_review ORDER BY created_at`)
}

func (p *PostgresRepository) ListAll(ctx context.Context, limit int) ([]*entity.ExtractionResult, error) {
	if limit <= 0 {
		limit = 1000
	}
	return p.list(ctx,
		`SELECT `+resultColumns+` FROM extraction_results
		 ORDER BY created_at DESC LIMIT $1`, limit)
}

func (p *PostgresRepository) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*entity.ExtractionResult, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []*entity.ExtractionResult
	for rows.Next() {
		rw, err := scanPg(rows)
		if err != nil {
			return nil, err
		}
		result, err := rw.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

type pgScanner interface {
	Scan(dest ...any) error
}

func scanPg(s pgScanner) (row, error) {
	var r row
	var data, scores, verrs, vwarns string
	err := s.Scan(&r.id, &r.documentID, &r.templateName, &data,
		&r.rawText, &r.provider, &r.strategy, &r.modelName, &scores,
		&r.latencyMS, &r.costUSD, &r.attempts, &r.validationPassed,
		&verrs, &vwarns, &r.requiresReview, &r.reviewReason, &r.createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return row{}, err
		}
		return row{}, fmt.Errorf("scan result row: %w", err)
	}
	r.extractedData = []byte(data)
	r.confidenceScores = []byte(scores)
	r.validationErrors = []byte(verrs)
	r.validationWarnings = []byte(vwarns)
	return r, nil
}
