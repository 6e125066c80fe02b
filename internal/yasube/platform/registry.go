package platform

import (
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

// Registry hands out one Platform per key, so that every scenario run against a platform during a planner
// execution shares the same session.
type Registry struct {
	specs map[string]Spec
	// guards the check-then-set on cache misses
	mu    sync.Mutex
	cache *cache.Cache
}

func NewRegistry(specs []Spec) *Registry {
	bySpec := make(map[string]Spec, len(specs))
	for _, s := range specs {
		bySpec[s.Key] = s
	}
	return &Registry{
		specs: bySpec,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Get returns the platform for key, creating it on first use.
func (r *Registry) Get(key string) (*Platform, error) {
	if p, ok := r.cache.Get(key); ok {
		return p.(*Platform), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cache.Get(key); ok {
		return p.(*Platform), nil
	}
	spec, ok := r.specs[key]
	if !ok {
		return nil, &yasubeerrors.ErrNotFound{Type: "platform", Value: key}
	}
	p := New(spec)
	r.cache.Set(key, p, cache.NoExpiration)
	return p, nil
}

// Spec returns the static description of the platform with the given key.
func (r *Registry) Spec(key string) (Spec, bool) {
	s, ok := r.specs[key]
	return s, ok
}
