package mocks

import (
	"context"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// MockLoader is a mock implementation of Loader for testing
type MockLoader struct {
	sourceType domain.SourceType

	// Documents returned per source path
	Documents map[string][]*domain.Document

	// Errors returned per source path
	Errors map[string]error

	// Call tracking
	LoadCalls []string
}

// NewMockLoader creates a new MockLoader for a source type
func NewMockLoader(sourceType domain.SourceType) *MockLoader {
	return &MockLoader{
		sourceType: sourceType,
		Documents:  make(map[string][]*domain.Document),
		Errors:     make(map[string]error),
	}
}

func (m *MockLoader) Type() domain.SourceType {
	return m.sourceType
}

func (m *MockLoader) Load(ctx context.Context, source *domain.DocumentSource) ([]*domain.Document, error) {
	m.LoadCalls = append(m.LoadCalls, source.SourcePath)

	if err, ok := m.Errors[source.SourcePath]; ok {
		return nil, err
	}
	return m.Documents[source.SourcePath], nil
}

// SetDocuments sets the documents returned for a source path.
// Each document inherits the given metadata.
func (m *MockLoader) SetDocuments(sourcePath string, contents []string, metadata map[string]any) {
	docs := make([]*domain.Document, len(contents))
	for i, content := range contents {
		docs[i] = &domain.Document{
			Content:  content,
			Metadata: domain.MergeMetadata(metadata, nil),
		}
	}
	m.Documents[sourcePath] = docs
}

// SetError makes Load fail for a source path.
func (m *MockLoader) SetError(sourcePath string, err error) {
	m.Errors[sourcePath] = err
}
