package loaders

import (
	"errors"
	"testing"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven/mocks"
)

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register(mocks.NewMockLoader(domain.SourceTypeWeb))

	loader, err := r.Get(domain.SourceTypeWeb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loader.Type() != domain.SourceTypeWeb {
		t.Errorf("expected web loader, got %s", loader.Type())
	}
}

func TestRegistry_Get_Unregistered(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(domain.SourceTypePDF)
	if !errors.Is(err, domain.ErrLoaderNotFound) {
		t.Fatalf("expected ErrLoaderNotFound, got %v", err)
	}
}

func TestRegistry_Register_Replaces(t *testing.T) {
	r := NewRegistry()
	first := mocks.NewMockLoader(domain.SourceTypeWeb)
	second := mocks.NewMockLoader(domain.SourceTypeWeb)

	r.Register(first)
	r.Register(second)

	loader, err := r.Get(domain.SourceTypeWeb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loader != second {
		t.Error("expected the later registration to win")
	}

	if got := len(r.SupportedTypes()); got != 1 {
		t.Errorf("expected 1 supported type, got %d", got)
	}
}

func TestRegistry_SupportedTypes(t *testing.T) {
	r := NewRegistry()
	r.Register(mocks.NewMockLoader(domain.SourceTypeWeb))
	r.Register(mocks.NewMockLoader(domain.SourceTypeCSV))
	r.Register(mocks.NewMockLoader(domain.SourceTypePDF))

	types := r.SupportedTypes()
	if len(types) != 3 {
		t.Fatalf("expected 3 types, got %d", len(types))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Error("expected sorted types")
		}
	}
}
