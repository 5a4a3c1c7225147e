package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"mercator-hq/exportable/pkg/record"
)

// ErrUnknownType is returned when a type name is not registered.
var ErrUnknownType = errors.New("unknown record type")

// DefinitionError reports an invalid type definition.
type DefinitionError struct {
	Where   string // Type or field the error refers to ("tank", "tank.stats")
	Message string
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	return fmt.Sprintf("type definition %s: %s", e.Where, e.Message)
}

// NewDefinitionError creates a new DefinitionError.
func NewDefinitionError(where, message string) *DefinitionError {
	return &DefinitionError{Where: where, Message: message}
}

// Registry holds record types by name. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*record.Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*record.Type)}
}

// Register adds t. Names must be unique.
func (r *Registry) Register(t *record.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.types[t.Name()]; dup {
		return NewDefinitionError(t.Name(), "already registered")
	}
	r.types[t.Name()] = t
	return nil
}

// Get returns the type registered under name.
func (r *Registry) Get(name string) (*record.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

func (r *Registry) lookup(name string) (*record.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}
