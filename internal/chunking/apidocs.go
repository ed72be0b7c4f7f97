package chunking

import (
	"regexp"
	"strings"
)

// Verify interface compliance
var _ Strategy = (*apiDocsStrategy)(nil)

const apiSectionMaxChunk = 1200

// apiEndpointPattern matches the start of an HTTP endpoint block:
// "GET /users" on its own line, optionally heading-marked.
var apiEndpointPattern = regexp.MustCompile(`(?m)^(?:#{1,4}\s*)?(?:GET|POST|PUT|DELETE|PATCH)\s+\S+`)

// apiDocsStrategy extracts one chunk per HTTP-method block. When no
// endpoint lines are found it falls back to splitting on fenced code
// blocks, keeping each code block attached to the text before it.
type apiDocsStrategy struct {
	maxSection int
}

func (s *apiDocsStrategy) Split(content string) ([]piece, error) {
	if endpoints := extractEndpointBlocks(content); len(endpoints) > 0 {
		return endpoints, nil
	}
	return s.splitOnCodeBlocks(content), nil
}

// extractEndpointBlocks returns one piece per endpoint: from a method
// line through the character before the next method line.
func extractEndpointBlocks(content string) []piece {
	locs := apiEndpointPattern.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}

	pieces := make([]piece, 0, len(locs))
	for i, loc := range locs {
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := strings.TrimSpace(content[loc[0]:end])
		if block == "" {
			continue
		}
		pieces = append(pieces, newPiece(block, ChunkTypeAPIEndpoint))
	}
	return pieces
}

// splitOnCodeBlocks accumulates prose paragraphs under maxSection
// characters; a fenced code block is always appended to the current
// group so it stays with its surrounding text, then the group is
// flushed if it overflowed.
func (s *apiDocsStrategy) splitOnCodeBlocks(content string) []piece {
	segments := splitFenced(content)
	hasCode := false
	for _, seg := range segments {
		if seg.code {
			hasCode = true
			break
		}
	}
	if !hasCode {
		return nil
	}

	var groups []string
	var buf []string
	size := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		groups = append(groups, strings.Join(buf, "\n\n"))
		buf = nil
		size = 0
	}

	for _, seg := range segments {
		if seg.code {
			buf = append(buf, seg.text)
			size += len(seg.text)
			if size >= s.maxSection {
				flush()
			}
			continue
		}
		for _, para := range strings.Split(seg.text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			if len(buf) > 0 && size+len(para) > s.maxSection {
				flush()
			}
			buf = append(buf, para)
			size += len(para)
		}
	}
	flush()

	pieces := make([]piece, 0, len(groups))
	for _, g := range groups {
		pieces = append(pieces, newPiece(g, ChunkTypeAPISection))
	}
	return pieces
}

type fencedSegment struct {
	text string
	code bool
}

// splitFenced splits content into alternating prose and fenced-code
// segments. The fence lines stay part of the code segment.
func splitFenced(content string) []fencedSegment {
	var segments []fencedSegment
	var current []string
	inCode := false

	emit := func(code bool) {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			segments = append(segments, fencedSegment{text: text, code: code})
		}
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCode {
				current = append(current, line)
				emit(true)
				inCode = false
				continue
			}
			emit(false)
			inCode = true
			current = append(current, line)
			continue
		}
		current = append(current, line)
	}
	emit(inCode)

	return segments
}
