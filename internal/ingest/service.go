package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/extractor"
	"github.com/docufield/extractor/internal/repository"
)

// Service turns watched files into stored extraction results. Every file
// the watcher emits is extracted against the configured template and the
// result saved; failures are logged and skipped so one bad file never
// stalls the inbox.
type Service struct {
	engine   *extractor.Engine
	repo     repository.ResultRepository
	template string
	log      *slog.Logger
}

func NewService(engine *extractor.Engine, repo repository.ResultRepository, templateName string, logger *slog.Logger) *Service {
	return &Service{
		engine:   engine,
		repo:     repo,
		template: templateName,
		log:      logger,
	}
}

// Run watches cfg.Roots until ctx is cancelled. It returns when the
// watcher channel closes or ctx is done.
func (s *Service) Run(ctx context.Context, cfg WatchConfig) error {
	events, errs, err := StartWatcher(ctx, cfg, s.log)
	if err != nil {
		return err
	}
	s.log.Info("ingest.run", "roots", cfg.Roots, "template", s.template)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-events:
			if !ok {
				return nil
			}
			s.processFile(ctx, path)
		case err, ok := <-errs:
			if ok && err != nil {
				s.log.Warn("ingest.watch.error", "error", err)
			}
		}
	}
}

func (s *Service) processFile(ctx context.Context, path string) {
	start := time.Now()

	doc, err := entity.NewDocumentFromFile(path)
	if err != nil {
		s.log.Warn("ingest.document.skip", "path", path, "error", err)
		return
	}

	result, err := s.engine.ExtractByName(ctx, doc, s.template, extractor.ExtractionOptions{})
	if err != nil {
		s.log.Error("ingest.extract.failed", "path", path, "error", err)
		return
	}

	if err := s.repo.SaveResult(ctx, result); err != nil {
		s.log.Error("ingest.save.failed", "path", path,
			"result_id", result.ID.String(), "error", common.WrapError(err, "save ingest result"))
		return
	}

	s.log.Info("ingest.extract.ok",
		"path", path,
		"result_id", result.ID.String(),
		"confidence", result.OverallConfidence(),
		"review", result.RequiresManualReview,
		"elapsed_ms", time.Since(start).Milliseconds())
}
