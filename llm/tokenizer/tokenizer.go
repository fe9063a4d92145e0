package tokenizer

import "go.uber.org/zap"

// Tokenizer是统一的 token 计数接口.
type Tokenizer interface {
	// CountTokens 返回给定文本的 token 数.
	CountTokens(text string) (int, error)

	// Encode 将文本转换为 token ID 列表.
	Encode(text string) ([]int, error)

	// Decode 将 token ID 转换回文本.
	Decode(tokens []int) (string, error)

	// Name 返回分词器的名称.
	Name() string
}

// ForModel returns a tiktoken tokenizer for model, or the estimator when
// the encoding cannot be loaded (tiktoken fetches BPE data on first use).
func ForModel(model string, logger *zap.Logger) Tokenizer {
	t := NewTiktokenTokenizer(model)
	if err := t.init(); err != nil {
		if logger != nil {
			logger.Warn("tiktoken unavailable, falling back to estimator",
				zap.String("model", model), zap.Error(err))
		}
		return NewEstimatorTokenizer(model)
	}
	return t
}

// Truncate trims text to at most maxTokens tokens.
// Texts already within budget are returned unchanged.
func Truncate(t Tokenizer, text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}
	if tr, ok := t.(interface {
		TruncateTokens(text string, maxTokens int) string
	}); ok {
		return tr.TruncateTokens(text, maxTokens)
	}
	n, err := t.CountTokens(text)
	if err != nil || n <= maxTokens {
		return text
	}
	ids, err := t.Encode(text)
	if err != nil || len(ids) <= maxTokens {
		return text
	}
	out, err := t.Decode(ids[:maxTokens])
	if err != nil {
		return text
	}
	return out
}
