package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/repository"
)

const sheetName = "Extractions"

var baseHeaders = []string{
	"Result ID", "Document ID", "Template", "Provider", "Strategy",
	"Confidence", "Validation", "Review", "Latency (ms)", "Created At",
}

// Service writes stored extraction results to an XLSX workbook, one row per
// result with extracted fields spread over dynamic columns.
type Service struct {
	repo repository.ResultRepository
	log  *slog.Logger
}

func NewService(repo repository.ResultRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

// ExportAll writes every stored result to path.
func (s *Service) ExportAll(ctx context.Context, path string) (int, error) {
	results, err := s.repo.ListAll(ctx, 0)
	if err != nil {
		return 0, err
	}
	return len(results), s.writeFile(results, path)
}

// ExportReviewQueue writes only results flagged for manual review.
func (s *Service) ExportReviewQueue(ctx context.Context, path string) (int, error) {
	results, err := s.repo.ListNeedingReview(ctx)
	if err != nil {
		return 0, err
	}
	return len(results), s.writeFile(results, path)
}

// ExportBuffer renders results into an in-memory workbook, for HTTP handlers.
func (s *Service) ExportBuffer(results []*entity.ExtractionResult) (*bytes.Buffer, error) {
	f, err := s.build(results)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.WriteToBuffer()
}

func (s *Service) writeFile(results []*entity.ExtractionResult, path string) error {
	start := time.Now()
	f, err := s.build(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write workbook %s: %w", path, err)
	}
	s.log.Info("export.xlsx.ok",
		"path", path,
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Service) build(results []*entity.ExtractionResult) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	fieldCols := fieldColumns(results)
	headers := append(append([]string{}, baseHeaders...), fieldCols...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header %q: %w", h, err)
		}
	}

	for rowIdx, r := range results {
		values := []any{
			r.ID.String(),
			r.DocumentID.String(),
			r.TemplateName,
			r.Provider,
			r.Strategy,
			r.OverallConfidence(),
			validationLabel(r),
			reviewLabel(r),
			r.LatencyMS,
			r.CreatedAt.Format(time.RFC3339),
		}
		for _, name := range fieldCols {
			values = append(values, cellValue(r.ExtractedData[name]))
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+2, err)
			}
		}
	}

	f.SetColWidth(sheetName, "A", "B", 38)
	if len(headers) > 2 {
		last, _ := excelize.ColumnNumberToName(len(headers))
		f.SetColWidth(sheetName, "C", last, 18)
	}
	return f, nil
}

// fieldColumns collects every extracted field name across results, sorted,
// so rows from different templates line up in one sheet.
func fieldColumns(results []*entity.ExtractionResult) []string {
	seen := make(map[string]struct{})
	for _, r := range results {
		for name := range r.ExtractedData {
			seen[name] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for name := range seen {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func validationLabel(r *entity.ExtractionResult) string {
	if r.ValidationPassed {
		return "passed"
	}
	return fmt.Sprintf("failed (%d errors)", len(r.ValidationErrors))
}

func reviewLabel(r *entity.ExtractionResult) string {
	if !r.RequiresManualReview {
		return ""
	}
	return r.ReviewReason
}

func cellValue(v any) any {
	switch tv := v.(type) {
	case nil:
		return ""
	case string, float64, bool, int, int64:
		return tv
	default:
		// tables and nested objects go in as compact JSON
		b, err := json.Marshal(tv)
		if err != nil {
			return fmt.Sprintf("%v", tv)
		}
		return string(b)
	}
}
