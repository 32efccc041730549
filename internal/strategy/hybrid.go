package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/provider"
)

// DefaultConfidenceThreshold is the local-result confidence at which hybrid
// skips the hosted escalation.
const DefaultConfidenceThreshold = 0.75

// Hybrid runs the free local path first and consumes hosted quota only when
// the local result's confidence falls below the threshold. Local and hosted
// run sequentially, never in parallel: the decision to call the hosted
// backend depends on the local result.
type Hybrid struct {
	local *Local
	cloud *Cloud
	log   *slog.Logger

	mu                 sync.Mutex
	threshold          float64
	localSuccessCount  int64
	cloudFallbackCount int64
	totalRequests      int64
}

func NewHybrid(local *Local, cloud *Cloud, logger *slog.Logger) *Hybrid {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hybrid{
		local:     local,
		cloud:     cloud,
		log:       logger,
		threshold: DefaultConfidenceThreshold,
	}
}

func (s *Hybrid) Name() string { return string(constants.StrategyHybrid) }

func (s *Hybrid) Providers() []provider.Provider {
	out := append([]provider.Provider{}, s.local.Providers()...)
	return append(out, s.cloud.Providers()...)
}

// SupportsTemplate: either leg being able to serve the template is enough;
// hybrid degrades to the other leg when one fails.
func (s *Hybrid) SupportsTemplate(tpl entity.Template) bool {
	return s.local.SupportsTemplate(tpl) || s.cloud.SupportsTemplate(tpl)
}

// EstimatedLatency is the local leg's: the majority of traffic never
// escalates.
func (s *Hybrid) EstimatedLatency() time.Duration {
	if lat := s.local.EstimatedLatency(); lat > 0 {
		return lat
	}
	return s.cloud.EstimatedLatency()
}

func (s *Hybrid) CostPerCall() float64 { return 0 }

// ConfidenceThreshold returns the current escalation threshold.
func (s *Hybrid) ConfidenceThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// SetConfidenceThreshold tunes the escalation threshold at runtime.
func (s *Hybrid) SetConfidenceThreshold(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = t
}

// Counters reports local successes, cloud fallbacks and total requests.
func (s *Hybrid) Counters() (localSuccess, cloudFallback, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localSuccessCount, s.cloudFallbackCount, s.totalRequests
}

// Execute: local first; accept immediately at or above the threshold.
// Otherwise try hosted too and keep whichever scored higher; local wins
// ties. Any hosted failure (rate limit included) falls back to the local
// result when one exists.
func (s *Hybrid) Execute(ctx context.Context, doc *entity.Document, tpl entity.Template, opts provider.Options) (*entity.ExtractionResult, error) {
	s.mu.Lock()
	s.totalRequests++
	threshold := s.threshold
	s.mu.Unlock()
	if opts.ConfidenceThreshold > 0 {
		threshold = opts.ConfidenceThreshold
	}

	localRes, localErr := s.local.Execute(ctx, doc, tpl, opts)
	if localErr == nil && localRes.OverallConfidence() >= threshold {
		s.mu.Lock()
		s.localSuccessCount++
		s.mu.Unlock()
		localRes.Strategy = s.Name()
		return localRes, nil
	}

	if localErr == nil {
		s.log.Info("strategy.hybrid.escalating",
			"template", tpl.Name,
			"local_confidence", localRes.OverallConfidence(),
			"threshold", threshold,
		)
	} else {
		s.log.Warn("strategy.hybrid.local_failed", "template", tpl.Name, "error", localErr)
	}

	cloudRes, cloudErr := s.cloud.Execute(ctx, doc, tpl, opts)
	if cloudErr == nil {
		s.mu.Lock()
		s.cloudFallbackCount++
		s.mu.Unlock()
		if localErr == nil && localRes.OverallConfidence() >= cloudRes.OverallConfidence() {
			localRes.Strategy = s.Name()
			return localRes, nil
		}
		cloudRes.Strategy = s.Name()
		return cloudRes, nil
	}

	if localErr == nil {
		if errors.Is(cloudErr, common.ErrRateLimited) {
			s.log.Warn("strategy.hybrid.cloud_rate_limited_using_local",
				"template", tpl.Name, "local_confidence", localRes.OverallConfidence())
		} else {
			s.log.Warn("strategy.hybrid.cloud_failed_using_local",
				"template", tpl.Name, "error", cloudErr)
		}
		localRes.Strategy = s.Name()
		return localRes, nil
	}

	return nil, fmt.Errorf("%w: local: %v; cloud: %v",
		common.ErrAllProvidersExhausted, localErr, cloudErr)
}
