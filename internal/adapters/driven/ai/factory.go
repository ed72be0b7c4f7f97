package ai

import (
	"fmt"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Embedding providers
const (
	ProviderOpenAI = "openai"
	// ProviderOllama targets a local OpenAI-compatible endpoint; the
	// API key is ignored by the server but required by the client.
	ProviderOllama = "ollama"
)

// EmbeddingSettings configures an embedding provider.
type EmbeddingSettings struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewEmbeddingService creates an embedding service from settings.
func NewEmbeddingService(settings EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	case ProviderOllama:
		apiKey := settings.APIKey
		if apiKey == "" {
			apiKey = "none"
		}
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("base URL is required for provider %s", settings.Provider)
		}
		return NewOpenAIEmbedding(apiKey, settings.Model, settings.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
