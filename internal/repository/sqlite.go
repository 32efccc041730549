package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

const timeLayout = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

const sqliteSchema = `
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
	latency_ms          INTEGER NOT NULL DEFAULT 0,
	cost_usd            REAL NOT NULL DEFAULT 0,
	attempts            INTEGER NOT NULL DEFAULT 0,
	validation_passed   INTEGER NOT NULL DEFAULT 1,
	validation_errors   TEXT NOT NULL DEFAULT '[]',
	validation_warnings TEXT NOT NULL DEFAULT '[]',
	requires_review     INTEGER NOT NULL DEFAULT 0,
	review_reason       TEXT NOT NULL DEFAULT '',
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_document ON extraction_results(document_id);
CREATE INDEX IF NOT EXISTS idx_results_review ON extraction_results(requires_review);
`

const resultColumns = `id, document_id, template_name, extracted_data, raw_text,
	provider, strategy, model_name, confidence_scores, latency_ms, cost_usd,
	attempts, validation_passed, validation_errors, validation_warnings,
	requires_review, review_reason, created_at`

// SQLiteRepository stores results in a local sqlite file.
type SQLiteRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLiteRepository(path string, logger *slog.Logger) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// modernc's driver serializes writes itself, one connection avoids
	// SQLITE_BUSY under concurrent ingest
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	logger.Info("repository.sqlite.open", "path", path)
	return &SQLiteRepository{db: db, log: logger}, nil
}

func (s *SQLiteRepository) SaveResult(ctx context.Context, result *entity.ExtractionResult) error {
	r, err := encodeRow(result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extraction_results (`+resultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			extracted_data=excluded.extracted_data,
			validation_passed=excluded.validation_passed,
			validation_errors=excluded.validation_errors,
			validation_warnings=excluded.validation_warnings,
			requires_review=excluded.requires_review,
			review_reason=excluded.review_reason`,
		r.id, r.documentID, r.templateName, r.extractedData, r.rawText,
		r.provider, r.strategy, r.modelName, r.confidenceScores, r.latencyMS,
		r.costUSD, r.attempts, r.validationPassed, r.validationErrors,
		r.validationWarnings, r.requiresReview, r.reviewReason, r.createdAt)
	if err != nil {
		return fmt.Errorf("save result %s: %w", result.ID, err)
	}
	return nil
}

func (s *SQLiteRepository) GetResult(ctx context.Context, id uuid.UUID) (*entity.ExtractionResult, error) {
	rw, err := scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+resultColumns+` FROM extraction_results WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: result %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rw.decode()
}

func (s *SQLiteRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*entity.ExtractionResult, error) {
	return s.list(ctx,
		`SELECT `+resultColumns+` FROM extraction_results
		 WHERE document_id = ? ORDER BY created_at`, documentID.String())
}

func (s *SQLiteRepository) ListNeedingReview(ctx context.Context) ([]*entity.ExtractionResult, error) {
	return s.list(ctx,
		`SELECT `+resultColumns+` FROM extraction_results
		 WHERE requires_review = 1 ORDER BY created_at`)
}

func (s *SQLiteRepository) ListAll(ctx context.Context, limit int) ([]*entity.ExtractionResult, error) {
	if limit <= 0 {
		limit = 1000
	}
	return s.list(ctx,
		`SELECT `+resultColumns+` FROM extraction_results
		 ORDER BY created_at DESC LIMIT ?`, limit)
}

func (s *SQLiteRepository) Close() error { return s.db.Close() }

func (s *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*entity.ExtractionResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []*entity.ExtractionResult
	for rows.Next() {
		rw, err := scanOne(rows)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(s scanner) (row, error) {
	var r row
	err := s.Scan(&r.id, &r.documentID, &r.templateName, &r.extractedData,
		&r.rawText, &r.provider, &r.strategy, &r.modelName, &r.confidenceScores,
		&r.latencyMS, &r.costUSD, &r.attempts, &r.validationPassed,
		&r.validationErrors, &r.validationWarnings, &r.requiresReview,
		&r.reviewReason, &r.createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row{}, err
		}
		return row{}, fmt.Errorf("scan result row: %w", err)
	}
	return r, nil
}
