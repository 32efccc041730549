package extractor

import (
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/provider"
	"github.com/docufield/extractor/internal/strategy"
)

const (
	// ReviewConfidenceThreshold is the overall confidence under which a
	// result is flagged for manual review regardless of the strategy used.
	ReviewConfidenceThreshold = 0.70
)

// ExtractionOptions tunes a single extraction request. Zero values mean
// "use the default"; SkipValidation defaults to running validation.
type ExtractionOptions struct {
	MaxRetries          int
	Timeout             time.Duration
	ConfidenceThreshold float64
	Strategy            constants.StrategyName
	PreferredProvider   string
	SkipValidation      bool
	ReturnRawText       bool
}

// Normalize fills defaults in place and returns the options for chaining.
// ConfidenceThreshold stays zero unless the caller set it: the strategy's
// own threshold (default or mutated through SetConfidenceThreshold) applies
// then, and a defaulted value here would mask it.
func (o ExtractionOptions) Normalize() ExtractionOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

func (o ExtractionOptions) providerOptions() provider.Options {
	return provider.Options{
		MaxRetries:          o.MaxRetries,
		Timeout:             o.Timeout,
		ReturnRawText:       o.ReturnRawText,
		ConfidenceThreshold: o.ConfidenceThreshold,
	}
}

func (o ExtractionOptions) selectionOptions() strategy.SelectionOptions {
	return strategy.SelectionOptions{
		Strategy:          o.Strategy,
		PreferredProvider: o.PreferredProvider,
	}
}
