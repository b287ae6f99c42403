package payment

import (
	"fmt"
	"sort"
	"sync"

	app "github.com/erp/ledger/internal/application/payables"
)

// Registry resolves payment methods by id
type Registry struct {
	mu      sync.RWMutex
	methods map[string]app.PaymentMethod
}

// NewRegistry creates a registry holding the given methods under their names
func NewRegistry(methods ...app.PaymentMethod) *Registry {
	r := &Registry{methods: make(map[string]app.PaymentMethod, len(methods))}
	for _, m := range methods {
		r.Register(m)
	}
	return r
}

// Register adds or replaces a method under its name
func (r *Registry) Register(method app.PaymentMethod) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[method.Name()] = method
}

// Get returns the method registered under id
func (r *Registry) Get(id string) (app.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	method, ok := r.methods[id]
	if !ok {
		return nil, fmt.Errorf("payment method %q is not registered", id)
	}
	return method, nil
}

// Names lists the registered method ids in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ensure Registry implements PaymentMethodFactory
var _ app.PaymentMethodFactory = (*Registry)(nil)
