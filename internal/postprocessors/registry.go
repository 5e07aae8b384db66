package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// BuilderFunc creates a processor from its section of the pipeline config.
// cfg may be nil.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

type entry struct {
	summary string
	build   BuilderFunc
}

// Registry maps processor names, as used in PipelineConfig, to builders.
type Registry struct {
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// NewDefaultRegistry returns a registry holding the built-in processors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// Register adds a builder. Names are unique; registering one twice fails.
func (r *Registry) Register(name, summary string, build BuilderFunc) error {
	if name == "" || build == nil {
		return fmt.Errorf("%w: processor needs a name and a builder", domain.ErrInvalidInput)
	}
	if _, dup := r.entries[name]; dup {
		return fmt.Errorf("%w: processor %q already registered", domain.ErrInvalidInput, name)
	}
	r.entries[name] = entry{summary: summary, build: build}
	return nil
}

// Build creates the named processor.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown processor %q", domain.ErrInvalidInput, name)
	}
	p, err := e.build(cfg)
	if err != nil {
		return nil, fmt.Errorf("processor %s: %w", name, err)
	}
	return p, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Summary returns the one-line description given at registration.
func (r *Registry) Summary(name string) string {
	return r.entries[name].summary
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
