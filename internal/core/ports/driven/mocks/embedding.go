package mocks

import (
	"context"
	"errors"
	"hash/fnv"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing
type MockEmbeddingService struct {
	dimensions int
	model      string

	// Failure controls
	failBatch bool // Embed always fails
	failAll   bool // Embed and EmbedQuery both fail
	failTexts map[string]bool

	// Call tracking
	EmbedCalls      [][]string
	EmbedQueryCalls []string
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 8,
		model:      "mock-embedding-model",
		failTexts:  make(map[string]bool),
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.EmbedCalls = append(m.EmbedCalls, texts)

	if m.failBatch || m.failAll {
		return nil, errors.New("embedding batch failed")
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.EmbedQueryCalls = append(m.EmbedQueryCalls, query)

	if m.failAll || m.failTexts[query] {
		return nil, errors.New("embedding failed")
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding generates a deterministic embedding based on text hash
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

// Helper methods for testing

// SetFailBatch makes every Embed call fail while leaving EmbedQuery working.
func (m *MockEmbeddingService) SetFailBatch(fail bool) {
	m.failBatch = fail
}

// SetFailAll makes every embedding call fail.
func (m *MockEmbeddingService) SetFailAll(fail bool) {
	m.failAll = fail
}

// SetFailText makes EmbedQuery fail for one specific text.
func (m *MockEmbeddingService) SetFailText(text string) {
	m.failTexts[text] = true
}
