// Package loaders resolves document loaders by source type. Loader
// implementations themselves live outside the core; this registry only
// routes sources to whichever loader was wired in at startup.
package loaders

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry implements LoaderRegistry with one loader per source type.
type Registry struct {
	mu      sync.RWMutex
	loaders map[domain.SourceType]driven.Loader
}

// NewRegistry creates a new loader registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[domain.SourceType]driven.Loader),
	}
}

// Register registers a loader for its source type, replacing any
// previous registration for that type.
func (r *Registry) Register(loader driven.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loaders[loader.Type()] = loader
}

// Get retrieves the loader for a source type.
func (r *Registry) Get(sourceType domain.SourceType) (driven.Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loader, ok := r.loaders[sourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLoaderNotFound, sourceType)
	}
	return loader, nil
}

// SupportedTypes returns the registered source types, sorted.
func (r *Registry) SupportedTypes() []domain.SourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.SourceType, 0, len(r.loaders))
	for t := range r.loaders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
