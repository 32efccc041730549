package template

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/docufield/extractor/constants"
	"github.com/docufield/extractor/internal/common"
	"github.com/docufield/extractor/internal/entity"
)

// Registry keeps templates by name. Names are unique; registering a
// duplicate is an error rather than a silent overwrite.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]entity.Template
}

func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]entity.Template)}
}

// NewDefaultRegistry returns a registry pre-loaded with the built-in
// templates.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, tpl := range BuiltinTemplates() {
		// built-ins are known good, a failure here is a programming error
		if err := r.Register(tpl); err != nil {
			panic(fmt.Sprintf("builtin template %q: %v", tpl.Name, err))
		}
	}
	return r
}

func (r *Registry) Register(tpl entity.Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[tpl.Name]; exists {
		return fmt.Errorf("%w: template %q is already registered", common.ErrInvalidTemplate, tpl.Name)
	}
	r.templates[tpl.Name] = tpl
	return nil
}

func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[name]; !exists {
		return fmt.Errorf("%w: %q", common.ErrTemplateNotFound, name)
	}
	delete(r.templates, name)
	return nil
}

func (r *Registry) GetByName(name string) (entity.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[name]
	if !ok {
		return entity.Template{}, fmt.Errorf("%w: %q (available: %s)",
			common.ErrTemplateNotFound, name, strings.Join(r.namesLocked(), ", "))
	}
	return tpl, nil
}

func (r *Registry) GetByType(t constants.TemplateType) []entity.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Template
	for _, tpl := range r.templates {
		if tpl.Type == t {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) GetAll() []entity.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
