package entity

import (
	"time"

	"github.com/docufield/extractor/constants"
)

// ProviderConfig is a static capability and cost description of one backend.
// Strategies and the selector read it; they never inspect concrete provider
// types.
type ProviderConfig struct {
	Name                 string                 `json:"name"`
	Kind                 constants.ProviderKind `json:"kind"`
	SupportsTables       bool                   `json:"supports_tables"`
	SupportsHandwriting  bool                   `json:"supports_handwriting"`
	SupportsMultilingual bool                   `json:"supports_multilingual"`
	MaxImageBytes        int64                  `json:"max_image_bytes,omitempty"`
	CostPerCall          float64                `json:"cost_per_call"`
	AvgLatency           time.Duration          `json:"avg_latency"`
	RequestsPerMinute    int                    `json:"requests_per_minute,omitempty"`
	RequestsPerDay       int                    `json:"requests_per_day,omitempty"`
}

// IsFree reports whether calls to this backend cost nothing.
func (c ProviderConfig) IsFree() bool {
	return c.CostPerCall == 0
}

// IsLocal reports whether the backend runs on this machine or the local
// network rather than a hosted API.
func (c ProviderConfig) IsLocal() bool {
	return c.Kind == constants.ProviderLlamaCpp || c.Kind == constants.ProviderOllama
}
