package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *Index {
	docs := []Document{
		{ID: "pause.md", Source: "pause.md", Content: "Customers can pause their Care+ subscription for up to three months without losing coverage."},
		{ID: "refund.md", Source: "refund.md", Content: "Refunds are prorated when a subscription is cancelled mid cycle."},
		{ID: "device.md", Source: "device.md", Content: "Overheating devices qualify for a free replacement under Care+ premium."},
	}
	return BuildIndex(docs, NewRecursiveChunker(DefaultChunkingConfig()))
}

func TestIndex_Search(t *testing.T) {
	idx := testIndex()
	require.Equal(t, 3, idx.Len())

	hits, err := idx.Search(context.Background(), "can I pause my subscription?", 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "pause.md", hits[0].Source)
	assert.LessOrEqual(t, len(hits), 2)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestIndex_SearchNoOverlap(t *testing.T) {
	hits, err := testIndex().Search(context.Background(), "zebra", 2)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_SearchEdgeCases(t *testing.T) {
	idx := testIndex()
	hits, err := idx.Search(context.Background(), "pause", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = NewIndex().Search(context.Background(), "pause", 2)
	require.NoError(t, err)
	assert.Empty(t, hits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = idx.Search(ctx, "pause", 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_Sources(t *testing.T) {
	assert.Equal(t, []string{"pause.md", "refund.md", "device.md"}, testIndex().Sources())
}

func TestIndex_ChunkCounts(t *testing.T) {
	idx := testIndex()
	idx.Add(Chunk{ID: "extra", Source: "pause.md", Content: "pause again"})
	assert.Equal(t, map[string]int{"pause.md": 2, "refund.md": 1, "device.md": 1}, idx.ChunkCounts())
	assert.Empty(t, NewIndex().ChunkCounts())
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"pause", "care+", "plan"}, Tokenize("Can I pause the Care+ plan?"))
	assert.Empty(t, Tokenize("the and of"))
}
