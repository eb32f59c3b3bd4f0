package ratelimit

import "sync"

// Registry vends Limiters keyed by "provider:model", creating and
// memoizing each one lazily on first use (§4.10).
type Registry struct {
	mu       sync.Mutex
	defaults Config
	perKey   map[string]Config
	limiters map[string]*Limiter
}

// NewRegistry returns a Registry that creates limiters from defaults
// unless a per-key override was set via SetConfig before first use.
func NewRegistry(defaults Config) *Registry {
	return &Registry{
		defaults: defaults,
		perKey:   make(map[string]Config),
		limiters: make(map[string]*Limiter),
	}
}

// SetConfig overrides the Config used for a given key the next time it
// is created. It has no effect on a Limiter already vended for that key.
func (r *Registry) SetConfig(key string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perKey[key] = cfg
}

// Get returns the Limiter for key, creating it from the registered
// per-key config (or the registry defaults) if this is the first call
// for that key.
func (r *Registry) Get(key string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}

	cfg := r.defaults
	if override, ok := r.perKey[key]; ok {
		cfg = override
	}
	l := New(cfg)
	r.limiters[key] = l
	return l
}

// Keys returns the keys of every limiter created so far.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.limiters))
	for k := range r.limiters {
		keys = append(keys, k)
	}
	return keys
}
