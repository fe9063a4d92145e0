package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ChunkingConfig 分块配置（按字符计数）
type ChunkingConfig struct {
	ChunkSize    int      `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int      `json:"chunk_overlap" yaml:"chunk_overlap"`
	Separators   []string `json:"separators" yaml:"separators"` // 优先级从高到低，"" 表示按字符
}

// DefaultChunkingConfig splits on markdown headings first, then paragraphs, lines and words.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:    500,
		ChunkOverlap: 50,
		Separators:   []string{"\n## ", "\n### ", "\n\n", "\n", " ", ""},
	}
}

// RecursiveChunker 递归分块：优先使用最高级的分隔符，超长片段降级到下一级分隔符。
type RecursiveChunker struct {
	cfg ChunkingConfig
}

// NewRecursiveChunker creates a chunker; zero values take the defaults.
func NewRecursiveChunker(cfg ChunkingConfig) *RecursiveChunker {
	def := DefaultChunkingConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = min(def.ChunkOverlap, cfg.ChunkSize/2)
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = def.Separators
	}
	return &RecursiveChunker{cfg: cfg}
}

// ChunkDocument splits doc into chunks.
func (c *RecursiveChunker) ChunkDocument(doc Document) []Chunk {
	parts := c.Split(doc.Content)
	chunks := make([]Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, Chunk{
			ID:      fmt.Sprintf("%s#%d", doc.ID, i),
			DocID:   doc.ID,
			Source:  doc.Source,
			Content: p,
			Index:   i,
		})
	}
	return chunks
}

// Split returns text pieces of at most ChunkSize runes where the
// separators allow it, with up to ChunkOverlap runes shared between
// neighbours.
func (c *RecursiveChunker) Split(text string) []string {
	return c.split(text, c.cfg.Separators)
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			sep = s
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var out, good []string
	for _, piece := range splitKeepSeparator(text, sep) {
		if runeLen(piece) < c.cfg.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, c.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, c.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, c.merge(good)...)
	}
	return out
}

// merge 将小片段合并为块，并在相邻块之间保留重叠
func (c *RecursiveChunker) merge(pieces []string) []string {
	var docs, current []string
	total := 0
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > c.cfg.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.cfg.ChunkOverlap || (total+n > c.cfg.ChunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepSeparator splits text on sep and keeps sep at the start of every piece after the first.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
