package provider

import (
	"fmt"
	"sort"

	"git-integration/internal/model"
)

// Registry maps provider identifiers to strategies. It is built once at
// startup and never mutated afterwards.
type Registry struct {
	strategies map[model.Provider]Strategy
}

// NewRegistry builds a registry. Registering the same provider twice is a
// wiring bug and returns an error.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	m := make(map[model.Provider]Strategy, len(strategies))
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if _, dup := m[s.Name()]; dup {
			return nil, fmt.Errorf("provider %s registered twice", s.Name())
		}
		m[s.Name()] = s
	}
	return &Registry{strategies: m}, nil
}

// Get returns the strategy for p or ErrUnknownProvider.
func (r *Registry) Get(p model.Provider) (Strategy, error) {
	s, ok := r.strategies[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, p)
	}
	return s, nil
}

// Providers lists the registered identifiers in stable order.
func (r *Registry) Providers() []model.Provider {
	out := make([]model.Provider, 0, len(r.strategies))
	for p := range r.strategies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
