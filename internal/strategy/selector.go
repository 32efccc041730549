package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

// SelectionOptions are the caller preferences the selector honors.
type SelectionOptions struct {
	Strategy          constants.StrategyName
	PreferredProvider string
}

// Selector scores candidate strategies for a template by cost and latency.
type Selector struct {
	strategies []Strategy
	log        *slog.Logger
}

func NewSelector(strategies []Strategy, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{strategies: strategies, log: logger}
}

// Select picks the strategy for one request. An explicitly requested
// strategy always wins; otherwise candidates that support the template are
// scored and the best kept. A named preferred provider short-circuits
// scoring.
func (s *Selector) Select(tpl entity.Template, opts SelectionOptions) (Strategy, error) {
	if opts.Strategy != "" && opts.Strategy != constants.StrategyAuto {
		for _, st := range s.strategies {
			if st.Name() == string(opts.Strategy) {
				return st, nil
			}
		}
		return nil, fmt.Errorf("%w: unknown strategy %q", common.ErrNotFound, opts.Strategy)
	}

	var candidates []Strategy
	for _, st := range s.strategies {
		if st.SupportsTemplate(tpl) {
			candidates = append(candidates, st)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: template %q", common.ErrNoStrategy, tpl.Name)
	}

	if opts.PreferredProvider != "" {
		for _, st := range candidates {
			for _, p := range st.Providers() {
				if p.Name() == opts.PreferredProvider {
					return st, nil
				}
			}
		}
	}

	best := candidates[0]
	bestScore := s.score(best)
	for _, st := range candidates[1:] {
		if sc := s.score(st); sc > bestScore {
			best, bestScore = st, sc
		}
	}
	s.log.Debug("selector.picked",
		"template", tpl.Name, "strategy", best.Name(), "score", bestScore)
	return best, nil
}

// score weighs cost first, then latency; hybrid gets a flat tie-break bonus
// because it keeps the hosted escape hatch open. A zero-dollar strategy only
// counts as free when its calls don't burn a rate-ceilinged quota: hosted
// free tiers pay in quota, not money, and must not outrank the local path.
func (s *Selector) score(st Strategy) int {
	score := 0
	if st.CostPerCall() == 0 && !quotaBound(st) {
		score += 50
	}
	if lat := st.EstimatedLatency(); lat > 0 && lat < 3*time.Second {
		score += 20
	} else if lat > 10*time.Second {
		score -= 20
	}
	if st.Name() == string(constants.StrategyHybrid) {
		score += 10
	}
	return score
}

// quotaBound reports whether every provider behind the strategy carries a
// rate ceiling. Hybrid keeps its unmetered local leg, so it stays unbound
// even with a hosted provider attached.
func quotaBound(st Strategy) bool {
	providers := st.Providers()
	if len(providers) == 0 {
		return false
	}
	for _, p := range providers {
		cfg := p.Config()
		if cfg.RequestsPerMinute <= 0 && cfg.RequestsPerDay <= 0 {
			return false
		}
	}
	return true
}
