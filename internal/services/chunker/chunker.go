package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/respondeo/internal/models"
)

// Chunker splits long text at semantic boundaries with configurable
// overlap. Token counts are estimated at four characters per token.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// boundaryPatterns mark places where a cut reads naturally: paragraph
// breaks, markdown headings, numbered list items, horizontal rules,
// "Section N" markers, and ALL-CAPS heading lines of six or more chars.
var boundaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\n\s*\n`),
	regexp.MustCompile(`\n#{1,6}\s`),
	regexp.MustCompile(`\n\d+\.\s`),
	regexp.MustCompile(`\n-{3,}`),
	regexp.MustCompile(`\nSection\s+\d`),
	regexp.MustCompile(`\n[A-Z][A-Z\s]{5,}\n`),
}

// New creates a chunker. Defaults: 4000 max tokens, 200 overlap tokens.
func New(maxTokens, overlapTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	if overlapTokens < 0 {
		overlapTokens = 200
	}
	if overlapTokens >= maxTokens {
		overlapTokens = maxTokens / 4
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}
}

// EstimateTokens approximates the token count of text as ceil(len/4).
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Split divides text into chunks of at most maxTokens estimated tokens,
// cutting at the latest semantic boundary in the back half of each
// window and stepping back by the overlap. The chunk set covers
// [0, len(text)) without gaps.
func (c *Chunker) Split(text string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if EstimateTokens(text) <= c.maxTokens {
		return []models.Chunk{{
			Text:       strings.TrimSpace(text),
			StartChar:  0,
			EndChar:    len(text),
			ChunkIndex: 0,
		}}
	}

	boundaries := c.boundaryOffsets(text)
	maxChars := c.maxTokens * 4
	overlapChars := c.overlapTokens * 4

	var chunks []models.Chunk
	cursor := 0
	index := 0

	for cursor < len(text) {
		end := cursor + maxChars
		if end >= len(text) {
			end = len(text)
		} else {
			// Prefer the latest boundary in (cursor+maxChars/2, cursor+maxChars].
			if cut, ok := latestBoundaryIn(boundaries, cursor+maxChars/2, end); ok {
				end = cut
			}
		}

		piece := strings.TrimSpace(text[cursor:end])
		emitted := piece != ""
		if emitted {
			chunks = append(chunks, models.Chunk{
				Text:       piece,
				StartChar:  cursor,
				EndChar:    end,
				ChunkIndex: index,
			})
			index++
		}

		if end >= len(text) {
			break
		}
		next := end
		if emitted {
			next = end - overlapChars
		}
		if next <= cursor {
			next = end
		}
		cursor = next
	}

	return chunks
}

// boundaryOffsets collects sorted, deduplicated cut offsets. Position 0
// and len(text) are implicit anchors.
func (c *Chunker) boundaryOffsets(text string) []int {
	seen := map[int]bool{0: true, len(text): true}
	for _, pattern := range boundaryPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			seen[loc[0]+1] = true
		}
	}

	offsets := make([]int, 0, len(seen))
	for off := range seen {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	return offsets
}

// latestBoundaryIn returns the largest boundary b with lo < b <= hi.
func latestBoundaryIn(boundaries []int, lo, hi int) (int, bool) {
	best := -1
	for _, b := range boundaries {
		if b > lo && b <= hi {
			best = b
		}
		if b > hi {
			break
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
