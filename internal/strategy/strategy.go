package strategy

import (
	"context"
	"time"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/entity"
	"github.com/docufield/extractor/internal/provider"
)

// Strategy sequences one or more providers for a single extraction request.
// Providers are always tried sequentially: fallback order stays
// deterministic and no call is spent on a backend whose result might turn
// out unnecessary.
type Strategy interface {
	Name() string
	// Execute runs the strategy's provider sequence and returns the first
	// acceptable result.
	Execute(ctx context.Context, doc *entity.Document, tpl entity.Template, opts provider.Options) (*entity.ExtractionResult, error)
	// SupportsTemplate reports whether this strategy's providers can handle
	// the template's field types.
	SupportsTemplate(tpl entity.Template) bool
	// Providers lists the providers this strategy may call, in try order.
	Providers() []provider.Provider
	// EstimatedLatency is the expected time of the typical call path.
	EstimatedLatency() time.Duration
	// CostPerCall is the expected monetary cost of the typical call path.
	CostPerCall() float64
}

// templateNeedsTables reports whether the template has table fields, the
// one capability the weakest local backends lack.
func templateNeedsTables(tpl entity.Template) bool {
	for _, f := range tpl.Fields {
		if f.Type == constants.FieldTypeTable {
			return true
		}
	}
	return false
}

// anySupports reports whether at least one provider covers the template's
// capability needs.
func anySupports(providers []provider.Provider, tpl entity.Template) bool {
	if len(providers) == 0 {
		return false
	}
	if !templateNeedsTables(tpl) {
		return true
	}
	for _, p := range providers {
		if p.Config().SupportsTables {
			return true
		}
	}
	return false
}
