package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/discovery"
	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/provider"
	"github.com/docufield/extractor/internal/strategy"
	"github.com/docufield/extractor/internal/template"
	"github.com/docufield/extractor/internal/validation"
)

// Engine is the single entry point for field extraction. It discovers the
// available backends once, builds the strategies they allow, and routes
// every request through the strategy selector.
type Engine struct {
	cfg        *common.Config
	log        *slog.Logger
	templates  *template.Registry
	providers  *provider.Registry
	discovery  *discovery.Service
	selector   *strategy.Selector
	strategies []strategy.Strategy
	report     discovery.Report

	initOnce sync.Once
	initErr  error
}

func NewEngine(cfg *common.Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       logger,
		templates: template.NewDefaultRegistry(),
		providers: provider.NewRegistry(),
		discovery: discovery.NewService(cfg, logger),
	}
}

// Initialize runs discovery and wires providers and strategies. Safe to
// call more than once; only the first call does work.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initOnce.Do(func() {
		e.initErr = e.initialize(ctx)
	})
	return e.initErr
}

func (e *Engine) initialize(ctx context.Context) error {
	start := time.Now()
	e.report = e.discovery.DiscoverAll(ctx)

	for _, m := range e.report.Models {
		p, err := e.buildProvider(m)
		if err != nil {
			e.log.Warn("engine.provider.skip", "model", m.Name, "error", err)
			continue
		}
		if err := e.providers.Register(p); err != nil {
			e.log.Warn("engine.provider.skip", "model", m.Name, "error", err)
		}
	}

	locals := e.providers.Local()
	hosted := e.providers.Hosted()

	var local *strategy.Local
	var cloud *strategy.Cloud
	if len(locals) > 0 {
		local = strategy.NewLocal(locals, e.log)
		e.strategies = append(e.strategies, local)
	}
	if len(hosted) > 0 {
		cloud = strategy.NewCloud(hosted, e.log)
		e.strategies = append(e.strategies, cloud)
	}
	if local != nil && cloud != nil {
		e.strategies = append(e.strategies, strategy.NewHybrid(local, cloud, e.log))
	}
	if len(e.strategies) == 0 {
		return fmt.Errorf("%w: no extraction backends discovered", common.ErrNoStrategy)
	}
	e.selector = strategy.NewSelector(e.strategies, e.log)

	e.log.Info("engine.initialize.ok",
		"models", len(e.report.Models),
		"providers", e.providers.Len(),
		"strategies", len(e.strategies),
		"discovery_errors", len(e.report.Errors),
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func (e *Engine) buildProvider(m entity.AvailableModel) (provider.Provider, error) {
	switch m.Kind {
	case constants.ProviderLlamaCpp:
		return provider.NewLlamaCpp(e.cfg.LlamaCpp.Binary, m, e.cfg.LlamaCpp.Threads, e.log), nil
	case constants.ProviderOllama:
		return provider.NewOllama(e.cfg.Ollama.BaseURL, m.Name, e.log), nil
	case constants.ProviderGemini:
		return provider.NewGemini(e.cfg.Gemini.APIKey, m.Name,
			e.cfg.Gemini.RequestsPerMinute, e.cfg.Gemini.RequestsPerDay, e.log), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", m.Kind)
	}
}

// Extract runs the full pipeline for one document against a template:
// strategy selection, extraction, validation, review flagging. Validation
// failures never surface as errors; they live on the returned result.
func (e *Engine) Extract(ctx context.Context, doc *entity.Document, tpl entity.Template, opts ExtractionOptions) (*entity.ExtractionResult, error) {
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if !doc.Resolvable() {
		return nil, fmt.Errorf("%w: document has neither content nor a file path", common.ErrInvalidDocument)
	}
	opts = opts.Normalize()

	st, err := e.selector.Select(tpl, opts.selectionOptions())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := st.Execute(ctx, doc, tpl, opts.providerOptions())
	if err != nil {
		return nil, common.NewExtractionError(st.Name(), err)
	}

	if !opts.SkipValidation {
		e.applyValidation(result, tpl)
	}
	if overall := result.OverallConfidence(); overall < ReviewConfidenceThreshold {
		result.FlagForReview(fmt.Sprintf("overall confidence %.2f below %.2f", overall, ReviewConfidenceThreshold))
	}
	doc.MarkProcessed()

	e.log.Info("engine.extract.ok",
		"document_id", doc.ID.String(),
		"template", tpl.Name,
		"strategy", st.Name(),
		"provider", result.Provider,
		"confidence", result.OverallConfidence(),
		"review", result.RequiresManualReview,
		"elapsed_ms", time.Since(start).Milliseconds())
	return result, nil
}

// ExtractByName is Extract with template lookup by registered name.
func (e *Engine) ExtractByName(ctx context.Context, doc *entity.Document, templateName string, opts ExtractionOptions) (*entity.ExtractionResult, error) {
	tpl, err := e.templates.GetByName(templateName)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, doc, tpl, opts)
}

func (e *Engine) applyValidation(result *entity.ExtractionResult, tpl entity.Template) {
	v := validation.Validate(tpl, result.ExtractedData)
	result.ValidationPassed = v.IsValid
	result.ValidationErrors = v.Errors
	result.ValidationWarnings = v.Warnings
	if !v.IsValid {
		result.FlagForReview(fmt.Sprintf("validation failed with %d error(s)", len(v.Errors)))
	}
}

// Templates exposes the template registry for registration and lookup.
func (e *Engine) Templates() *template.Registry { return e.templates }

// Providers lists the registered providers, local first.
func (e *Engine) Providers() []provider.Provider {
	return append(e.providers.Local(), e.providers.Hosted()...)
}

// Models returns the models discovery found.
func (e *Engine) Models() []entity.AvailableModel { return e.report.Models }

// RecommendedModel returns the best discovered model, or nil.
func (e *Engine) RecommendedModel() *entity.AvailableModel {
	return discovery.RecommendModel(e.report.Models)
}

// DiscoveryErrors lists non-fatal problems discovery hit.
func (e *Engine) DiscoveryErrors() []string { return e.report.Errors }
