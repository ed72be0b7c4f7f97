package chunking

import (
	"strings"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// Verify interface compliance
var _ Strategy = (*terraformStrategy)(nil)

const terraformMaxChunk = 1200

// terraformBlockKinds are the top-level block kinds extracted from
// Terraform configuration.
var terraformBlockKinds = map[string]struct{}{
	"resource": {},
	"data":     {},
	"module":   {},
	"variable": {},
	"output":   {},
	"locals":   {},
}

type terraformBlock struct {
	kind         string
	resourceType string
	content      string
}

// terraformStrategy extracts top-level Terraform blocks with a
// bracket-depth scanner and greedily accumulates them into chunks.
// A block larger than maxSize becomes its own chunk.
type terraformStrategy struct {
	maxSize int
}

func (s *terraformStrategy) Split(content string) ([]piece, error) {
	blocks := scanTerraformBlocks(content)
	if len(blocks) == 0 {
		return nil, nil
	}

	var pieces []piece
	var group []terraformBlock
	groupSize := 0

	flush := func() {
		if len(group) == 0 {
			return
		}
		parts := make([]string, len(group))
		for i, b := range group {
			parts[i] = b.content
		}
		p := newPiece(strings.Join(parts, "\n\n"), ChunkTypeTerraformCombined)
		p.tags[domain.MetaBlockType] = groupBlockTypes(group)
		if rt := groupResourceType(group); rt != "" {
			p.tags[domain.MetaResourceType] = rt
		}
		pieces = append(pieces, p)
		group = nil
		groupSize = 0
	}

	for _, b := range blocks {
		if len(b.content) > s.maxSize {
			flush()
			p := newPiece(b.content, ChunkTypeTerraformBlock)
			p.tags[domain.MetaBlockType] = b.kind
			if b.resourceType != "" {
				p.tags[domain.MetaResourceType] = b.resourceType
			}
			pieces = append(pieces, p)
			continue
		}

		added := len(b.content)
		if len(group) > 0 {
			added += len("\n\n")
		}
		if len(group) > 0 && groupSize+added > s.maxSize {
			flush()
			added = len(b.content)
		}
		group = append(group, b)
		groupSize += added
	}
	flush()

	return pieces, nil
}

// groupBlockTypes returns the distinct block kinds in a group, in first
// occurrence order, comma-joined.
func groupBlockTypes(group []terraformBlock) string {
	seen := make(map[string]struct{}, len(group))
	var kinds []string
	for _, b := range group {
		if _, ok := seen[b.kind]; ok {
			continue
		}
		seen[b.kind] = struct{}{}
		kinds = append(kinds, b.kind)
	}
	return strings.Join(kinds, ",")
}

// groupResourceType returns the resource type when the group contains
// exactly one resource block, else empty.
func groupResourceType(group []terraformBlock) string {
	var rt string
	count := 0
	for _, b := range group {
		if b.kind == "resource" {
			count++
			rt = b.resourceType
		}
	}
	if count == 1 {
		return rt
	}
	return ""
}

// scanTerraformBlocks extracts every top-level block of a known kind,
// in source order. Brace depth is tracked with string literals and
// comments skipped, so nested blocks and braces inside strings do not
// confuse the scan.
func scanTerraformBlocks(src string) []terraformBlock {
	var blocks []terraformBlock
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '#':
			i = skipLine(src, i)
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			i = skipLine(src, i)
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			i = skipBlockComment(src, i)
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			word := src[start:i]
			if _, ok := terraformBlockKinds[word]; ok {
				end := skipBlock(src, i)
				b := terraformBlock{
					kind:    word,
					content: strings.TrimSpace(src[start:end]),
				}
				if word == "resource" {
					b.resourceType = firstQuotedLabel(src[i:end])
				}
				blocks = append(blocks, b)
				i = end
			} else {
				// provider, terraform, attribute assignments etc.:
				// skip past the statement to stay at top level
				i = skipStatement(src, i)
			}
		default:
			i++
		}
	}
	return blocks
}

// skipBlock advances past the first brace-balanced block at or after i.
// Returns the index just past the closing brace, or len(src) if the
// block is unterminated.
func skipBlock(src string, i int) int {
	depth := 0
	opened := false
	for i < len(src) {
		switch c := src[i]; c {
		case '"':
			i = skipString(src, i)
			continue
		case '#':
			i = skipLine(src, i)
			continue
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				i = skipLine(src, i)
				continue
			}
			if i+1 < len(src) && src[i+1] == '*' {
				i = skipBlockComment(src, i)
				continue
			}
		case '{':
			depth++
			opened = true
		case '}':
			depth--
			if opened && depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}

// skipStatement advances past a top-level statement: to the end of the
// line, or past the brace-balanced block if one opens on the line.
func skipStatement(src string, i int) int {
	for i < len(src) {
		switch c := src[i]; c {
		case '\n':
			return i + 1
		case '"':
			i = skipString(src, i)
		case '#':
			return skipLine(src, i)
		case '{':
			return skipBlock(src, i)
		default:
			i++
		}
	}
	return i
}

// skipString advances past a double-quoted string literal starting at i,
// honoring backslash escapes.
func skipString(src string, i int) int {
	i++ // opening quote
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipLine(src string, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(src string, i int) int {
	i += 2 // opening /*
	for i+1 < len(src) {
		if src[i] == '*' && src[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return len(src)
}

// firstQuotedLabel returns the contents of the first double-quoted
// label in s, or empty.
func firstQuotedLabel(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
