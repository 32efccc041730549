package provider

import (
	"sync"
	"time"
)

// Stats holds per-provider request counters. Each provider instance owns
// one; all mutation goes through the methods so concurrent extraction calls
// sharing a provider stay consistent.
type Stats struct {
	mu           sync.Mutex
	requests     int64
	failures     int64
	totalLatency time.Duration
	totalCost    float64
	lastError    string
	lastUsed     time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests   int64         `json:"requests"`
	Failures   int64         `json:"failures"`
	AvgLatency time.Duration `json:"avg_latency"`
	TotalCost  float64       `json:"total_cost"`
	LastError  string        `json:"last_error,omitempty"`
	LastUsed   time.Time     `json:"last_used,omitempty"`
}

// RecordSuccess counts one successful call.
func (s *Stats) RecordSuccess(latency time.Duration, cost float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	s.totalLatency += latency
	s.totalCost += cost
	s.lastUsed = time.Now().UTC()
}

// RecordFailure counts one failed call.
func (s *Stats) RecordFailure(latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	s.failures++
	s.totalLatency += latency
	if err != nil {
		s.lastError = err.Error()
	}
	s.lastUsed = time.Now().UTC()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Requests:  s.requests,
		Failures:  s.failures,
		TotalCost: s.totalCost,
		LastError: s.lastError,
		LastUsed:  s.lastUsed,
	}
	if s.requests > 0 {
		snap.AvgLatency = s.totalLatency / time.Duration(s.requests)
	}
	return snap
}
