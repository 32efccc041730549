package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/docufield/extractor/internal/common"
)

// Registry holds the providers discovery built, keyed by name. Strategies
// and the façade look providers up here; nothing outside discovery ever
// constructs a concrete provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider; a duplicate name is rejected.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	r.order = append(r.order, name)
	return nil
}

// Get returns the provider with the given name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q (available: %v)", common.ErrNotFound, name, r.namesLocked())
	}
	return p, nil
}

// All returns every provider in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Local returns providers that run on this machine or the local network,
// sorted by estimated latency ascending so strategies try the fastest
// first.
func (r *Registry) Local() []Provider {
	return r.filtered(func(p Provider) bool { return p.Config().IsLocal() })
}

// Hosted returns quota-limited remote providers, fastest first.
func (r *Registry) Hosted() []Provider {
	return r.filtered(func(p Provider) bool { return !p.Config().IsLocal() })
}

func (r *Registry) filtered(keep func(Provider) bool) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Provider
	for _, name := range r.order {
		if p := r.providers[name]; keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Config().AvgLatency < out[j].Config().AvgLatency
	})
	return out
}

// Names lists registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports how many providers are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
