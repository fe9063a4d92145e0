package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_CountTokens(t *testing.T) {
	e := NewEstimatorTokenizer("any")

	n, err := e.CountTokens("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, _ = e.CountTokens("abcd")
	assert.Equal(t, 1, n)
	n, _ = e.CountTokens("abcde")
	assert.Equal(t, 2, n)

	ids, _ := e.Encode("abcdefghij")
	assert.Equal(t, []int{4, 8, 10}, ids)
}

func TestTruncate_Estimator(t *testing.T) {
	e := NewEstimatorTokenizer("any")
	text := strings.Repeat("x", 100)

	assert.Equal(t, text, Truncate(e, text, 0))
	assert.Equal(t, text, Truncate(e, text, 25))
	assert.Len(t, Truncate(e, text, 10), 40)
	assert.Equal(t, "日本語", Truncate(e, "日本語", 1))
	assert.Equal(t, "日本語の", Truncate(e, "日本語のテキスト", 1))
}

func TestNewTiktokenTokenizer_Encoding(t *testing.T) {
	assert.Equal(t, "tiktoken[o200k_base]", NewTiktokenTokenizer("gpt-4o-mini").Name())
	assert.Equal(t, "tiktoken[cl100k_base]", NewTiktokenTokenizer("gpt-4-turbo").Name())
	assert.Equal(t, "tiktoken[cl100k_base]", NewTiktokenTokenizer("gemini-2.0-flash").Name())
}
