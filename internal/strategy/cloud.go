package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/provider"
)

// Cloud tries hosted providers in order. A rate-limit failure is re-raised
// immediately instead of moving on: burning a second hosted backend's quota
// to dodge the first one's ceiling defeats the point of having ceilings.
type Cloud struct {
	providers []provider.Provider
	log       *slog.Logger
}

func NewCloud(providers []provider.Provider, logger *slog.Logger) *Cloud {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloud{providers: providers, log: logger}
}

func (s *Cloud) Name() string { return string(constants.StrategyCloud) }

func (s *Cloud) Providers() []provider.Provider { return s.providers }

func (s *Cloud) SupportsTemplate(tpl entity.Template) bool {
	return anySupports(s.providers, tpl)
}

func (s *Cloud) EstimatedLatency() time.Duration {
	if len(s.providers) == 0 {
		return 0
	}
	return s.providers[0].Config().AvgLatency
}

// CostPerCall is the first provider's: that is the one a successful call
// normally pays for.
func (s *Cloud) CostPerCall() float64 {
	if len(s.providers) == 0 {
		return 0
	}
	return s.providers[0].Config().CostPerCall
}

func (s *Cloud) Execute(ctx context.Context, doc *entity.Document, tpl entity.Template, opts provider.Options) (*entity.ExtractionResult, error) {
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("%w: no hosted providers discovered", common.ErrAllProvidersExhausted)
	}

	var failures []string
	for _, p := range s.providers {
		result, err := provider.ExtractWithRetry(ctx, p, doc, tpl, opts, s.log)
		if err != nil {
			if errors.Is(err, common.ErrRateLimited) {
				return nil, err
			}
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			s.log.Warn("strategy.cloud.provider_failed",
				"provider", p.Name(), "template", tpl.Name, "error", err)
			continue
		}
		result.Strategy = s.Name()
		return result, nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrAllProvidersExhausted, strings.Join(failures, "; "))
}
