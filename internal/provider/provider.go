package provider

import (
	"context"
	"time"

	"github.com/docufield/extractor/internal/entity"
)

// Options bound a single provider call. ConfidenceThreshold is read by the
// hybrid strategy, not by providers.
type Options struct {
	MaxRetries          int
	Timeout             time.Duration
	RetryDelay          time.Duration
	ReturnRawText       bool
	ConfidenceThreshold float64
}

// Provider is the uniform contract every backend implements: initialize
// lazily, extract one document given a prompt, report health. Providers
// return the raw field map exactly as the backend produced it; confidence
// and validation are layered on by the retry wrapper and the façade.
type Provider interface {
	// Name is the unique registry key, e.g. "ollama:llava".
	Name() string
	// Model is the backend model serving requests.
	Model() string
	// Config describes static capabilities and cost.
	Config() entity.ProviderConfig
	// Initialize loads weights or verifies the endpoint. Idempotent; a
	// failed attempt may be retried on the next call.
	Initialize(ctx context.Context) error
	// Extract runs one generation over the document and parses the raw
	// field map. Failures wrap ErrProviderUnavailable, ErrProviderTimeout
	// or ErrRateLimited.
	Extract(ctx context.Context, doc *entity.Document, prompt string, opts Options) (map[string]any, string, error)
	// CheckHealth reports whether the backend is currently usable.
	CheckHealth(ctx context.Context) bool
	// Stats exposes the per-instance counters the retry wrapper updates.
	Stats() *Stats
}
