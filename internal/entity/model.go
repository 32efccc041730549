package entity

import (
	"time"

	"github.com/docufield/extractor/constants"
)

// AvailableModel is a runtime-discovered description of a usable backend
// model. Only the discovery service creates these.
type AvailableModel struct {
	Name         string                 `json:"name"`
	Kind         constants.ProviderKind `json:"provider_kind"`
	Location     string                 `json:"path_or_endpoint"`
	SizeBytes    int64                  `json:"size_bytes,omitempty"`
	DiscoveredAt time.Time              `json:"discovered_at"`
	IsLoaded     bool                   `json:"is_loaded"`
	LastUsed     *time.Time             `json:"last_used,omitempty"`
}

// Touch records that the model just served a request.
func (m *AvailableModel) Touch() {
	now := time.Now().UTC()
	m.LastUsed = &now
}
