package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/provider"
)

// Local tries free local providers in estimated-latency order and returns
// the first success. Cost is always zero.
type Local struct {
	providers []provider.Provider // latency-ascending
	log       *slog.Logger
}

// NewLocal builds the strategy over latency-sorted local providers
// (the registry's Local() already sorts).
func NewLocal(providers []provider.Provider, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{providers: providers, log: logger}
}

func (s *Local) Name() string { return string(constants.StrategyLocal) }

func (s *Local) Providers() []provider.Provider { return s.providers }

func (s *Local) SupportsTemplate(tpl entity.Template) bool {
	return anySupports(s.providers, tpl)
}

// EstimatedLatency is the fastest provider's, since that is the typical
// call path.
func (s *Local) EstimatedLatency() time.Duration {
	if len(s.providers) == 0 {
		return 0
	}
	return s.providers[0].Config().AvgLatency
}

func (s *Local) CostPerCall() float64 { return 0 }

// Execute walks the providers in order; every failure is logged and the
// next candidate tried. When all fail, the error names each provider so the
// caller can see exactly what was attempted.
func (s *Local) Execute(ctx context.Context, doc *entity.Document, tpl entity.Template, opts provider.Options) (*entity.ExtractionResult, error) {
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("%w: no local providers discovered", common.ErrAllProvidersExhausted)
	}

	var failures []string
	for _, p := range s.providers {
		result, err := provider.ExtractWithRetry(ctx, p, doc, tpl, opts, s.log)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			s.log.Warn("strategy.local.provider_failed",
				"provider", p.Name(), "template", tpl.Name, "error", err)
			continue
		}
		result.Strategy = s.Name()
		return result, nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrAllProvidersExhausted, strings.Join(failures, "; "))
}
