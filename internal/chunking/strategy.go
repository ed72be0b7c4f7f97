// Package chunking converts loaded documents into retrieval-sized chunks
// using content-aware, per-category strategies. Strategy selection is a
// data-table lookup on the document category; unknown categories fail
// closed to the generic recursive splitter.
package chunking

import (
	"strings"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// Chunk type tags attached to emitted chunks.
const (
	ChunkTypeTerraformBlock    = "terraform_block"
	ChunkTypeTerraformCombined = "terraform_combined"
	ChunkTypeAWSFeatureSection = "aws_feature_section"
	ChunkTypeAWSParagraph      = "aws_paragraph"
	ChunkTypePricingData       = "pricing_data"
	ChunkTypeAPIEndpoint       = "api_endpoint"
	ChunkTypeAPISection        = "api_section"
	ChunkTypeTutorialSteps     = "tutorial_steps"
	ChunkTypeTutorialLongStep  = "tutorial_long_step"
	ChunkTypeTutorialSection   = "tutorial_section"
	ChunkTypeCSVData           = "csv_data"
	ChunkTypeCode              = "code"
	ChunkTypeGeneric           = "generic"
)

// piece is an intermediate chunk produced by a strategy: content plus the
// strategy's own tags. Document metadata is merged in by the engine.
type piece struct {
	content string
	tags    map[string]any
}

func newPiece(content, chunkType string) piece {
	return piece{
		content: content,
		tags:    map[string]any{domain.MetaChunkType: chunkType},
	}
}

// Strategy segments one document's content into tagged pieces.
type Strategy interface {
	Split(content string) ([]piece, error)
}

// accumulator implements the shared accumulate-and-flush policy: units
// are appended to a running group while the joined size stays within
// maxSize; adding a unit that would overflow flushes the group first.
type accumulator struct {
	maxSize   int
	separator string

	units []string
	size  int
	out   []string
}

func newAccumulator(maxSize int, separator string) *accumulator {
	return &accumulator{maxSize: maxSize, separator: separator}
}

// add appends a unit, flushing the pending group first if the unit would
// push the joined size past maxSize.
func (a *accumulator) add(unit string) {
	added := len(unit)
	if len(a.units) > 0 {
		added += len(a.separator)
	}
	if len(a.units) > 0 && a.size+added > a.maxSize {
		a.flush()
		added = len(unit)
	}
	a.units = append(a.units, unit)
	a.size += added
}

// addStandalone flushes any pending group, then emits the unit as its
// own group regardless of size.
func (a *accumulator) addStandalone(unit string) {
	a.flush()
	a.out = append(a.out, unit)
}

func (a *accumulator) flush() {
	if len(a.units) == 0 {
		return
	}
	a.out = append(a.out, strings.Join(a.units, a.separator))
	a.units = nil
	a.size = 0
}

// groups returns the accumulated groups, flushing any pending one.
func (a *accumulator) groups() []string {
	a.flush()
	return a.out
}
