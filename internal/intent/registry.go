package intent

import (
	"fmt"
	"sort"
	"sync"
)

// Validator converts the raw parameters of one intent kind into its payload.
// Validators drop invalid entries rather than failing the whole intent.
type Validator func(Params) Payload

// Registry maps intent kinds to validators. Kinds missing from the registry
// are treated as "no intent" by Extract.
type Registry struct {
	mu         sync.RWMutex
	validators map[Kind]Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[Kind]Validator)}
}

// DefaultRegistry returns a registry with every built-in kind registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(KindCompose, ValidateCompose)
	return r
}

// Register adds a validator for kind. Registering a kind twice is an error.
func (r *Registry) Register(kind Kind, v Validator) error {
	if kind == "" {
		return fmt.Errorf("intent kind is empty")
	}
	if v == nil {
		return fmt.Errorf("intent kind %q: validator is nil", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.validators[kind]; exists {
		return fmt.Errorf("intent kind %q already registered", kind)
	}
	r.validators[kind] = v
	return nil
}

// MustRegister is Register that panics on error. Use only for built-ins.
func (r *Registry) MustRegister(kind Kind, v Validator) {
	if err := r.Register(kind, v); err != nil {
		panic(err)
	}
}

// Lookup returns the validator for kind.
func (r *Registry) Lookup(kind Kind) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[kind]
	return v, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.validators))
	for k := range r.validators {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate runs the registered validator for in.Kind.
func (r *Registry) Validate(in Intent) (Payload, error) {
	v, ok := r.Lookup(in.Kind)
	if !ok {
		return nil, fmt.Errorf("intent kind %q not registered", in.Kind)
	}
	return v(in.Params), nil
}
