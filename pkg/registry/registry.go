package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/pipeline"
)

var (
	// ErrNotFound is returned when no action is registered under a name.
	ErrNotFound = errors.New("action not found")
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("action already registered")
	// ErrUnnamed is returned when registering an action without a name.
	ErrUnnamed = errors.New("action has no name")
)

// Registry indexes actions by name.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*pipeline.Action
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]*pipeline.Action),
	}
}

// Register adds actions to the registry. Names must be unique.
func (r *Registry) Register(actions ...*pipeline.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range actions {
		name := a.Name()
		if name == "" {
			return ErrUnnamed
		}
		if _, exists := r.actions[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicate, name)
		}
		r.actions[name] = a
	}
	return nil
}

// Get looks up an action by name.
func (r *Registry) Get(name string) (*pipeline.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a, nil
}

// Actions lists every registered action, sorted by name.
func (r *Registry) Actions() []*pipeline.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*pipeline.Action, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Invoke looks up an action by name and invokes it.
func (r *Registry) Invoke(ctx context.Context, name string, args ...any) (*pipeline.Response, error) {
	a, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return a.Invoke(ctx, args...)
}
