package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores schemas by name so one server can host several forms.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*Schema),
	}
}

// Register adds a schema under its Name(). Duplicate names return an error.
func (r *Registry) Register(s *Schema) error {
	if s == nil {
		return fmt.Errorf("schema: schema is required")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("schema: schema name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[name]; exists {
		return fmt.Errorf("schema: %q already registered", name)
	}
	r.schemas[name] = s
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(s *Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Get retrieves a schema by name.
func (r *Registry) Get(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("schema: %q not found", name)
	}
	return s, nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a schema is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.schemas[name]
	return ok
}
