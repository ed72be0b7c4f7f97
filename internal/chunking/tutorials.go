package chunking

import (
	"regexp"
	"strings"
)

// Verify interface compliance
var _ Strategy = (*tutorialsStrategy)(nil)

const (
	tutorialStepsMaxChunk   = 1200
	tutorialLongStepMinSize = 1500
)

// tutorialStepPattern matches the start of a numbered or labelled step.
var tutorialStepPattern = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]\s+|Step\s+\d+[:.]?\s*)`)

// tutorialsStrategy extracts numbered procedure steps. Steps longer
// than longStep become standalone chunks; the rest accumulate under
// maxSteps characters. With no steps present it falls back to "##"
// heading sections.
type tutorialsStrategy struct {
	maxSteps int
	longStep int
}

func (s *tutorialsStrategy) Split(content string) ([]piece, error) {
	steps := extractSteps(content)
	if len(steps) == 0 {
		var pieces []piece
		for _, section := range splitSections(content, "## ") {
			section = strings.TrimSpace(section)
			if section == "" {
				continue
			}
			pieces = append(pieces, newPiece(section, ChunkTypeTutorialSection))
		}
		return pieces, nil
	}

	acc := newAccumulator(s.maxSteps, "\n\n")
	var pieces []piece
	for _, step := range steps {
		if len(step) > s.longStep {
			for _, group := range acc.groups() {
				pieces = append(pieces, newPiece(group, ChunkTypeTutorialSteps))
			}
			acc = newAccumulator(s.maxSteps, "\n\n")
			pieces = append(pieces, newPiece(step, ChunkTypeTutorialLongStep))
			continue
		}
		acc.add(step)
	}
	for _, group := range acc.groups() {
		pieces = append(pieces, newPiece(group, ChunkTypeTutorialSteps))
	}
	return pieces, nil
}

// extractSteps returns each step's text: from a step marker through the
// character before the next marker or heading.
func extractSteps(content string) []string {
	locs := tutorialStepPattern.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}

	steps := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		step := content[loc[0]:end]
		// a heading after the step body belongs to the next section
		if idx := strings.Index(step, "\n## "); idx >= 0 {
			step = step[:idx]
		}
		step = strings.TrimSpace(step)
		if step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}
