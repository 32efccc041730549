package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

const (
	defaultMaxRetries = 3
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = 2 * time.Second
)

// ExtractWithRetry drives one provider through up to MaxRetries attempts
// with a fixed backoff, verifies the returned shape against the template's
// schema, scores every template field, and records latency/cost/success on
// the provider's stats. Rate-limit failures are never retried here; quota
// discipline belongs to the strategy layer.
func ExtractWithRetry(ctx context.Context, p Provider, doc *entity.Document, tpl entity.Template, opts Options, logger *slog.Logger) (*entity.ExtractionResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}

	if err := p.Initialize(ctx); err != nil {
		p.Stats().RecordFailure(0, err)
		return nil, err
	}

	prompt := tpl.BuildPrompt()
	schema := BuildTemplateJSONSchema(tpl)
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		callStart := time.Now()
		fields, rawText, err := p.Extract(callCtx, doc, prompt, opts)
		cancel()
		callLatency := time.Since(callStart)

		if err == nil {
			if verr := verifyShape(schema, fields); verr != nil {
				err = common.NewProviderError(p.Name(), "extract", verr)
			}
		}

		if err != nil {
			lastErr = err
			p.Stats().RecordFailure(callLatency, err)
			logger.Warn("provider.extract.attempt_failed",
				"provider", p.Name(),
				"attempt", attempt,
				"max_retries", opts.MaxRetries,
				"elapsed_ms", callLatency.Milliseconds(),
				"error", err,
			)
			if errors.Is(err, common.ErrRateLimited) {
				return nil, err
			}
			if attempt < opts.MaxRetries {
				select {
				case <-ctx.Done():
					return nil, common.NewProviderError(p.Name(), "extract", common.ErrProviderTimeout)
				case <-time.After(opts.RetryDelay):
				}
			}
			continue
		}

		p.Stats().RecordSuccess(callLatency, p.Config().CostPerCall)

		result := entity.NewExtractionResult(doc.ID, p.Name())
		result.TemplateName = tpl.Name
		result.ModelName = p.Model()
		result.ExtractedData = fields
		result.Attempts = attempt
		result.LatencyMS = time.Since(start).Milliseconds()
		result.CostUSD = p.Config().CostPerCall
		if opts.ReturnRawText {
			result.RawText = rawText
		}
		for _, f := range tpl.Fields {
			result.ConfidenceScores[f.Name] = EstimateFieldConfidence(f, fields[f.Name])
		}

		logger.Info("provider.extract.ok",
			"provider", p.Name(),
			"model", p.Model(),
			"template", tpl.Name,
			"document_id", doc.ID.String(),
			"attempt", attempt,
			"fields", len(fields),
			"overall_confidence", result.OverallConfidence(),
			"elapsed_ms", result.LatencyMS,
		)
		return result, nil
	}

	return nil, fmt.Errorf("provider %s failed after %d attempts: %w", p.Name(), opts.MaxRetries, lastErr)
}

// verifyShape round-trips the field map through JSON and validates it
// against the template schema.
func verifyShape(schema map[string]any, fields map[string]any) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	return ValidateAgainstSchema(schema, b)
}
