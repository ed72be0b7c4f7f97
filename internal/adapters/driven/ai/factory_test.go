package ai

import (
	"errors"
	"testing"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

func TestNewEmbeddingService_OpenAI(t *testing.T) {
	svc, err := NewEmbeddingService(EmbeddingSettings{
		Provider: ProviderOpenAI,
		APIKey:   "sk-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != defaultOpenAIModel {
		t.Errorf("expected default model, got %s", svc.Model())
	}
	if svc.Dimensions() != 1536 {
		t.Errorf("expected 1536 dimensions, got %d", svc.Dimensions())
	}
}

func TestNewEmbeddingService_OpenAI_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(EmbeddingSettings{Provider: ProviderOpenAI})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewEmbeddingService_Ollama_RequiresBaseURL(t *testing.T) {
	_, err := NewEmbeddingService(EmbeddingSettings{Provider: ProviderOllama})
	if err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

func TestNewEmbeddingService_UnknownProvider(t *testing.T) {
	_, err := NewEmbeddingService(EmbeddingSettings{Provider: "carrier-pigeon"})
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Fatalf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestOpenAIEmbedding_ModelDimensions(t *testing.T) {
	svc, err := NewOpenAIEmbedding("sk-test", "text-embedding-3-large", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Dimensions() != 3072 {
		t.Errorf("expected 3072, got %d", svc.Dimensions())
	}

	svc, err = NewOpenAIEmbedding("sk-test", "some-custom-model", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Dimensions() != 1536 {
		t.Errorf("expected fallback 1536, got %d", svc.Dimensions())
	}
}
