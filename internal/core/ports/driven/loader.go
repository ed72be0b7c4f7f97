package driven

import (
	"context"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// Loader fetches raw documents for one source type. Loader
// implementations (HTTP fetch, PDF parsing, GitHub API, browser
// automation) live outside this core; the pipeline only depends on
// this contract.
type Loader interface {
	// Type returns the source type this loader handles.
	Type() domain.SourceType

	// Load fetches all documents for a source. One source may yield
	// zero or many documents; every document must carry the source
	// metadata it was loaded with.
	Load(ctx context.Context, source *domain.DocumentSource) ([]*domain.Document, error)
}

// LoaderRegistry resolves loaders by source type.
type LoaderRegistry interface {
	// Register registers a loader for its source type, replacing any
	// previous registration for that type.
	Register(loader Loader)

	// Get retrieves the loader for a source type.
	// Returns domain.ErrLoaderNotFound if none is registered.
	Get(sourceType domain.SourceType) (Loader, error)

	// SupportedTypes returns the registered source types.
	SupportedTypes() []domain.SourceType
}
