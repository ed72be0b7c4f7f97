package chunking

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// Verify interface compliance
var _ Strategy = (*awsDocsStrategy)(nil)

const awsParagraphMaxChunk = 800

// awsSectionVocabulary matches headings worth extracting as feature
// sections.
var awsSectionVocabulary = []string{
	"overview",
	"feature",
	"pricing",
	"cost",
	"security",
	"benefit",
	"use case",
}

var awsServiceNamePattern = regexp.MustCompile(`(?:Amazon|AWS)\s+([A-Za-z0-9]+)`)

// awsDocsStrategy extracts Markdown "##" sections whose heading matches
// the feature-section vocabulary. When no section matches, it falls
// back to paragraph accumulation under maxParagraph characters.
type awsDocsStrategy struct {
	maxParagraph int
}

func (s *awsDocsStrategy) Split(content string) ([]piece, error) {
	if sections := extractFeatureSections(content); len(sections) > 0 {
		return sections, nil
	}

	acc := newAccumulator(s.maxParagraph, "\n\n")
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		acc.add(para)
	}

	var pieces []piece
	for _, group := range acc.groups() {
		pieces = append(pieces, newPiece(group, ChunkTypeAWSParagraph))
	}
	return pieces, nil
}

// extractFeatureSections returns one piece per "##" section whose
// heading contains a vocabulary term. Sections are emitted whole.
func extractFeatureSections(content string) []piece {
	var pieces []piece
	for _, section := range splitSections(content, "## ") {
		heading, _, _ := strings.Cut(section, "\n")
		if !matchesVocabulary(heading) {
			continue
		}
		p := newPiece(strings.TrimSpace(section), ChunkTypeAWSFeatureSection)
		if m := awsServiceNamePattern.FindStringSubmatch(heading); m != nil {
			p.tags[domain.MetaServiceName] = m[1]
		}
		pieces = append(pieces, p)
	}
	return pieces
}

func matchesVocabulary(heading string) bool {
	lower := strings.ToLower(heading)
	for _, term := range awsSectionVocabulary {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// splitSections splits content on lines starting with marker, returning
// each marked section (heading line included, preamble excluded).
func splitSections(content, marker string) []string {
	var sections []string
	var current []string
	inSection := false

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, marker) {
			if inSection {
				sections = append(sections, strings.Join(current, "\n"))
			}
			current = []string{line}
			inSection = true
			continue
		}
		if inSection {
			current = append(current, line)
		}
	}
	if inSection {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}
