package strategies

import (
	"fmt"
	"sort"
)

// Constructor builds a strategy instance under the given participant name.
type Constructor func(name string, cfg Config) Strategy

// Registry maps strategy kinds to constructors. The built-in strategies are
// pre-registered; callers may add their own before the run starts.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns a registry with the built-in strategies registered.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register("market_making", func(name string, cfg Config) Strategy { return NewMarketMaking(name, cfg) })
	r.Register("momentum", func(name string, cfg Config) Strategy { return NewMomentum(name, cfg) })
	r.Register("mean_reversion", func(name string, cfg Config) Strategy { return NewMeanReversion(name, cfg) })
	r.Register("arbitrage", func(name string, cfg Config) Strategy { return NewArbitrage(name, cfg) })
	return r
}

// Register adds or replaces a constructor under kind.
func (r *Registry) Register(kind string, ctor Constructor) {
	r.constructors[kind] = ctor
}

// Create instantiates the named strategy kind.
func (r *Registry) Create(kind, name string, cfg Config) (Strategy, error) {
	ctor, ok := r.constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", kind)
	}
	return ctor(name, cfg), nil
}

// Available lists the registered strategy kinds in sorted order.
func (r *Registry) Available() []string {
	kinds := make([]string, 0, len(r.constructors))
	for kind := range r.constructors {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
