package generator

import (
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownModule is returned by Instantiate when no factory is
// registered under the requested module name.
var ErrUnknownModule = fmt.Errorf("unknown generator module")

// Factory creates the configured set of instances for a module, one
// per requested variant. Factories validate module-specific
// configuration and fail fast on invalid parameters.
type Factory func(cfg Config) ([]Instance, error)

// Registry maps module names to factories. Registration happens once
// during process initialization; the registry is append-only for the
// process lifetime and is passed by reference into the engine rather
// than held as global mutable state.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Factory),
	}
}

// Register adds a module factory under the given name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("module factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %s already registered", name)
	}

	r.modules[name] = factory
	return nil
}

// Instantiate looks up the named module and constructs its instances.
// An unregistered name is a fatal configuration error, not retried.
func (r *Registry) Instantiate(name string, cfg Config) ([]Instance, error) {
	r.mu.RLock()
	factory, exists := r.modules[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}

	instances, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s instances: %w", name, err)
	}

	return instances, nil
}

// Modules returns the registered module names in sorted order.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with every built-in module
// registered. It is the fixed init point for module registration.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Registering a built-in module cannot fail: names are unique
	// string constants and factories are non-nil.
	_ = r.Register(ModuleNop, NewNopInstances)
	_ = r.Register(ModuleStock, NewStockInstances)
	_ = r.Register(ModuleSupermarket, NewSalesInstances)
	_ = r.Register(ModulePrompt, NewPromptInstances)

	return r
}
