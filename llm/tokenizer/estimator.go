package tokenizer

import (
	"fmt"
	"unicode/utf8"
)

// EstimatorTokenizer approximates tokens as four runes each.
type EstimatorTokenizer struct {
	model         string
	runesPerToken int
}

// NewEstimatorTokenizer creates a generic estimator.
func NewEstimatorTokenizer(model string) *EstimatorTokenizer {
	return &EstimatorTokenizer{model: model, runesPerToken: 4}
}

func (e *EstimatorTokenizer) CountTokens(text string) (int, error) {
	n := utf8.RuneCountInString(text)
	return (n + e.runesPerToken - 1) / e.runesPerToken, nil
}

// Encode returns pseudo ids: the rune offset at which each token ends.
func (e *EstimatorTokenizer) Encode(text string) ([]int, error) {
	runes := utf8.RuneCountInString(text)
	count, _ := e.CountTokens(text)
	ids := make([]int, count)
	for i := range ids {
		ids[i] = min((i+1)*e.runesPerToken, runes)
	}
	return ids, nil
}

// Decode is not supported; pseudo ids carry no text.
func (e *EstimatorTokenizer) Decode(tokens []int) (string, error) {
	return "", fmt.Errorf("estimator tokenizer cannot decode %d tokens", len(tokens))
}

// TruncateTokens keeps the first maxTokens estimated tokens of text.
func (e *EstimatorTokenizer) TruncateTokens(text string, maxTokens int) string {
	limit := maxTokens * e.runesPerToken
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

func (e *EstimatorTokenizer) Name() string {
	return "estimator"
}
