package chunking

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// Verify interface compliance
var _ Strategy = (*recursiveStrategy)(nil)

// pricingSeparators split pricing pages on headings before falling back
// to paragraph and line boundaries.
var pricingSeparators = []string{"\n## ", "\n\n", "\n", " "}

// recursiveStrategy wraps a recursive-character splitter and tags every
// produced piece with a single chunk type.
type recursiveStrategy struct {
	chunkType string
	splitter  textsplitter.RecursiveCharacter
}

func newRecursiveStrategy(chunkType string, chunkSize, chunkOverlap int, separators []string) *recursiveStrategy {
	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	}
	if len(separators) > 0 {
		opts = append(opts, textsplitter.WithSeparators(separators))
	}
	return &recursiveStrategy{
		chunkType: chunkType,
		splitter:  textsplitter.NewRecursiveCharacter(opts...),
	}
}

func (s *recursiveStrategy) Split(content string) ([]piece, error) {
	parts, err := s.splitter.SplitText(content)
	if err != nil {
		return nil, err
	}
	pieces := make([]piece, 0, len(parts))
	for _, part := range parts {
		pieces = append(pieces, newPiece(part, s.chunkType))
	}
	return pieces, nil
}
