package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRecursiveChunker_ShortTextSingleChunk(t *testing.T) {
	c := NewRecursiveChunker(DefaultChunkingConfig())
	assert.Equal(t, []string{"Pause is available for up to 3 months."}, c.Split("Pause is available for up to 3 months."))
}

func TestRecursiveChunker_SplitsOnHeadingsFirst(t *testing.T) {
	c := NewRecursiveChunker(ChunkingConfig{ChunkSize: 60, ChunkOverlap: 0})
	text := "# Policy\nIntro line.\n## Pause\nCustomers may pause.\n## Downgrade\nCustomers may downgrade."
	chunks := c.Split(text)
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1], "## Downgrade"))
	assert.Contains(t, chunks[0], "## Pause")
}

func TestRecursiveChunker_Overlap(t *testing.T) {
	c := NewRecursiveChunker(ChunkingConfig{ChunkSize: 20, ChunkOverlap: 10, Separators: []string{" ", ""}})
	chunks := c.Split("one two three four five six seven eight nine ten")
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.Contains(t, strings.Fields(chunks[i-1]), strings.Fields(chunks[i])[0], "chunk %d should start inside the previous one", i)
	}
}

func TestRecursiveChunker_ConfigDefaults(t *testing.T) {
	c := NewRecursiveChunker(ChunkingConfig{ChunkSize: 10, ChunkOverlap: 10})
	assert.Equal(t, 5, c.cfg.ChunkOverlap)
	assert.Equal(t, DefaultChunkingConfig().Separators, c.cfg.Separators)
}

func TestRecursiveChunker_ChunkDocument(t *testing.T) {
	c := NewRecursiveChunker(DefaultChunkingConfig())
	chunks := c.ChunkDocument(Document{ID: "pause.md", Source: "pause.md", Content: "Pause your plan."})
	require.Len(t, chunks, 1)
	assert.Equal(t, "pause.md#0", chunks[0].ID)
	assert.Equal(t, "pause.md", chunks[0].Source)
}

func TestProperty_RecursiveChunker_BoundedAndComplete(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(10, 80).Draw(rt, "size")
		overlap := rapid.IntRange(0, size/2).Draw(rt, "overlap")
		words := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 1, 60).Draw(rt, "words")
		text := strings.Join(words, " ")

		c := NewRecursiveChunker(ChunkingConfig{ChunkSize: size, ChunkOverlap: overlap})
		chunks := c.Split(text)
		require.NotEmpty(rt, chunks)

		joined := strings.Join(chunks, " ")
		for _, w := range words {
			assert.Contains(rt, joined, w)
		}
		for _, ch := range chunks {
			assert.LessOrEqual(rt, utf8.RuneCountInString(ch), size)
		}
	})
}
