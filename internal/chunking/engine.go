package chunking

import (
	"log/slog"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// Engine dispatches documents to per-category chunking strategies and
// merges each document's metadata into the emitted chunks. An Engine is
// built once per run so the generic strategy picks up the run's chunk
// size and overlap.
type Engine struct {
	strategies map[domain.Category]Strategy
	generic    Strategy
	logger     *slog.Logger
}

// NewEngine creates a chunking engine for one run's configuration.
func NewEngine(cfg domain.RunConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.Normalize()

	generic := newRecursiveStrategy(ChunkTypeGeneric, cfg.ChunkSize, cfg.ChunkOverlap, nil)

	return &Engine{
		generic: generic,
		strategies: map[domain.Category]Strategy{
			domain.CategoryTerraform: &terraformStrategy{maxSize: terraformMaxChunk},
			domain.CategoryAWSDocs:   &awsDocsStrategy{maxParagraph: awsParagraphMaxChunk},
			domain.CategoryPricing:   newRecursiveStrategy(ChunkTypePricingData, 600, 100, pricingSeparators),
			domain.CategoryAPIDocs:   &apiDocsStrategy{maxSection: apiSectionMaxChunk},
			domain.CategoryTutorials: &tutorialsStrategy{
				maxSteps: tutorialStepsMaxChunk,
				longStep: tutorialLongStepMinSize,
			},
			domain.CategoryCSV:     newRecursiveStrategy(ChunkTypeCSVData, 1500, 50, nil),
			domain.CategoryCode:    newRecursiveStrategy(ChunkTypeCode, 800, 100, nil),
			domain.CategoryGeneric: generic,
		},
		logger: logger.With("component", "chunking"),
	}
}

// ChunkDocument splits one document into chunks. Structural strategies
// that find nothing to extract fall back to the generic splitter, so a
// non-empty document always produces at least one chunk.
func (e *Engine) ChunkDocument(doc *domain.Document) ([]*domain.Chunk, error) {
	category := e.categoryFor(doc)

	pieces, err := e.strategies[category].Split(doc.Content)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 && doc.Content != "" {
		e.logger.Debug("no structural matches, using generic splitter",
			"category", category)
		pieces, err = e.generic.Split(doc.Content)
		if err != nil {
			return nil, err
		}
	}

	chunks := make([]*domain.Chunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, &domain.Chunk{
			Content:  p.content,
			Metadata: domain.MergeMetadata(doc.Metadata, p.tags),
		})
	}
	return chunks, nil
}

// ChunkDocuments splits a batch of documents. A document that fails to
// chunk is logged and skipped; one bad document never aborts the batch.
func (e *Engine) ChunkDocuments(docs []*domain.Document) []*domain.Chunk {
	var chunks []*domain.Chunk
	for i, doc := range docs {
		docChunks, err := e.ChunkDocument(doc)
		if err != nil {
			e.logger.Error("failed to chunk document", "index", i, "error", err)
			continue
		}
		chunks = append(chunks, docChunks...)
	}
	return chunks
}

// categoryFor resolves the strategy key: the document_category metadata
// field when set, else the source type for code and CSV sources, else
// generic.
func (e *Engine) categoryFor(doc *domain.Document) domain.Category {
	if doc.Metadata == nil {
		return domain.CategoryGeneric
	}
	if c, ok := doc.Metadata[domain.MetaDocumentCategory].(string); ok && c != "" {
		if _, known := e.strategies[domain.Category(c)]; known {
			return domain.Category(c)
		}
		return domain.CategoryGeneric
	}
	if st, ok := doc.Metadata[domain.MetaSourceType].(string); ok {
		switch domain.SourceType(st) {
		case domain.SourceTypeCSV:
			return domain.CategoryCSV
		case domain.SourceTypeGitHubCodebase, domain.SourceTypeGitHub:
			return domain.CategoryCode
		}
	}
	return domain.CategoryGeneric
}
