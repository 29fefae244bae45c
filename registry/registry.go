// Package registry maps dataset names to the factories that build them.
//
// A Registry is an explicit value owned by the caller; there is no package
// level instance. Each key is written once: registering a name that is
// already present fails with ErrDuplicateRegistration and the first
// registration stays in place.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Noofbiz/molprep/datasets"
)

var (
	ErrDuplicateRegistration = errors.New("dataset already registered")
	ErrInvalidRegistration   = errors.New("invalid registration")
	ErrNotFound              = errors.New("dataset not registered")
)

// Factory builds a dataset on first use.
type Factory func() (*datasets.Dataset, error)

type entry struct {
	factory Factory

	mu sync.Mutex
	ds *datasets.Dataset
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register binds key to f.
func (r *Registry) Register(key string, f Factory) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidRegistration)
	}
	if f == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidRegistration, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRegistration, key)
	}
	r.entries[key] = &entry{factory: f}
	return nil
}

// Get returns the dataset registered under key, building it on the first
// successful call. Later calls return the same *Dataset. A factory error is
// returned as is and the next Get retries.
func (r *Registry) Get(key string) (*datasets.Dataset, error) {
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ds != nil {
		return e.ds, nil
	}
	ds, err := e.factory()
	if err != nil {
		return nil, fmt.Errorf("build %q: %w", key, err)
	}
	if ds == nil {
		return nil, fmt.Errorf("build %q: factory returned no dataset", key)
	}
	e.ds = ds
	return ds, nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Keys returns the registered names in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
