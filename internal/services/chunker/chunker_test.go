package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("x", 100)))
}

func TestSplitEmptyText(t *testing.T) {
	c := New(100, 10)
	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\t  "))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := New(100, 10)
	chunks := c.Split("A short requirements document.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "A short requirements document.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
}

func TestSplitCoversWholeText(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("Section content about vendor obligations and delivery milestones.\n\n")
	}
	text := b.String()

	c := New(100, 10)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	// First chunk starts at zero, last chunk ends at len(text), and
	// consecutive chunks leave no gap.
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndChar)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].StartChar, chunks[i-1].EndChar,
			"chunk %d must start at or before the previous end", i)
		assert.Equal(t, i, chunks[i].ChunkIndex)
	}
}

func TestSplitRespectsMaxTokens(t *testing.T) {
	text := strings.Repeat("word ", 2000)
	c := New(100, 10)
	for _, chunk := range c.Split(text) {
		assert.LessOrEqual(t, EstimateTokens(chunk.Text), 100)
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("alpha ", 50)
	text := para + "\n\n" + para + "\n\n" + para

	c := New(100, 10)
	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	// The first cut should land on a paragraph break, not mid-word.
	assert.False(t, strings.HasSuffix(chunks[0].Text, "alph"))
}

func TestNewDefaults(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, 4000, c.maxTokens)
	assert.Equal(t, 200, c.overlapTokens)

	// Overlap >= max collapses to a quarter of max.
	c = New(100, 100)
	assert.Equal(t, 25, c.overlapTokens)
}
