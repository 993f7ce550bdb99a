package circuit

import "sync"

// Registry holds one breaker per dependency name, creating them lazily with
// any per-dependency options registered up front. Get-or-create is idempotent
// under concurrent first access.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	defaults map[string][]Option
	base     []Option
}

// NewRegistry creates a registry. base options apply to every breaker and are
// overridden by per-dependency options registered with Configure.
func NewRegistry(base ...Option) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		defaults: make(map[string][]Option),
		base:     base,
	}
}

// Configure registers default options for a dependency name. Must be called
// before the first Get for that name to take effect.
func (r *Registry) Configure(name string, opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults[name] = opts
}

// Get returns the breaker for the named dependency, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	opts := append(append([]Option{}, r.base...), r.defaults[name]...)
	b := New(name, opts...)
	r.breakers[name] = b
	return b
}

// Execute runs fn through the named dependency's breaker.
func (r *Registry) Execute(name string, fn func() error) error {
	return r.Get(name).Execute(fn)
}

// Status returns snapshots for all known breakers.
func (r *Registry) Status() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]Status, 0, len(r.breakers))
	for _, b := range r.breakers {
		statuses = append(statuses, b.Status())
	}
	return statuses
}
