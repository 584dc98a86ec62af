// Package suite groups checks into named suites. A Suite pairs a
// Descriptor (default target, threshold, resource needs) with a Factory
// that builds the ordered check list for a concrete environment.
package suite

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kylerisse/smokecheck/pkg/check"
)

// Factory builds the ordered checks of a suite for env.
type Factory func(env Env) ([]check.Check, error)

type entry struct {
	factory Factory
	desc    Descriptor
}

// Registry holds registered suites and their factories.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register adds a suite under desc.Name.
// Returns an error if the name is empty or already registered.
func (r *Registry) Register(desc Descriptor, factory Factory) error {
	if desc.Name == "" {
		return fmt.Errorf("suite name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("suite %q has no factory", desc.Name)
	}
	if desc.Threshold == 0 {
		desc.Threshold = DefaultDescriptorThreshold
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[desc.Name]; exists {
		return fmt.Errorf("suite %q is already registered", desc.Name)
	}
	r.entries[desc.Name] = entry{factory: factory, desc: desc}
	return nil
}

// Create builds the checks of the named suite.
// Returns an error if the suite is not registered or the factory fails.
func (r *Registry) Create(name string, env Env) ([]check.Check, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown suite %q", name)
	}
	checks, err := e.factory(env)
	if err != nil {
		return nil, fmt.Errorf("suite %q: %w", name, err)
	}
	return checks, nil
}

// Describe returns the Descriptor registered for the named suite.
func (r *Registry) Describe(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return Descriptor{}, fmt.Errorf("unknown suite %q", name)
	}
	return e.desc, nil
}

// Names returns the names of all registered suites, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
