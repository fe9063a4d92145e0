package rag

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"so": {}, "such": {}, "that": {}, "the": {}, "their": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "will": {}, "with": {}, "i": {}, "my": {}, "me": {},
	"you": {}, "your": {}, "we": {}, "our": {}, "do": {}, "can": {},
}

type indexedChunk struct {
	chunk  Chunk
	tf     map[string]int
	length int
}

// Index is an in-memory BM25 keyword index. Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	chunks   []indexedChunk
	df       map[string]int
	totalLen int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{df: make(map[string]int)}
}

// BuildIndex chunks docs and indexes every chunk.
func BuildIndex(docs []Document, chunker *RecursiveChunker) *Index {
	idx := NewIndex()
	for _, d := range docs {
		idx.Add(chunker.ChunkDocument(d)...)
	}
	return idx
}

// Add indexes chunks.
func (x *Index) Add(chunks ...Chunk) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, c := range chunks {
		terms := Tokenize(c.Content)
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			x.df[t]++
		}
		x.chunks = append(x.chunks, indexedChunk{chunk: c, tf: tf, length: len(terms)})
		x.totalLen += len(terms)
	}
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

// Sources returns the distinct source names in index order.
func (x *Index) Sources() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, c := range x.chunks {
		if !seen[c.chunk.Source] {
			seen[c.chunk.Source] = true
			out = append(out, c.chunk.Source)
		}
	}
	return out
}

// ChunkCounts returns the number of chunks per source.
func (x *Index) ChunkCounts() map[string]int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[string]int)
	for _, c := range x.chunks {
		out[c.chunk.Source]++
	}
	return out
}

// Search implements Retriever. Chunks sharing no term with query are never returned.
func (x *Index) Search(ctx context.Context, query string, k int) ([]PolicyHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	terms := Tokenize(query)

	x.mu.RLock()
	defer x.mu.RUnlock()
	n := len(x.chunks)
	if n == 0 || len(terms) == 0 {
		return nil, nil
	}
	avgdl := float64(x.totalLen) / float64(n)

	type scored struct {
		i     int
		score float64
	}
	var results []scored
	for i, c := range x.chunks {
		s := 0.0
		for _, t := range terms {
			f := float64(c.tf[t])
			if f == 0 {
				continue
			}
			df := float64(x.df[t])
			idf := math.Log(1 + (float64(n)-df+0.5)/(df+0.5))
			s += idf * f * (bm25K1 + 1) / (f + bm25K1*(1-bm25B+bm25B*float64(c.length)/avgdl))
		}
		if s > 0 {
			results = append(results, scored{i: i, score: s})
		}
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].score > results[b].score })
	if len(results) > k {
		results = results[:k]
	}

	hits := make([]PolicyHit, 0, len(results))
	for _, r := range results {
		c := x.chunks[r.i].chunk
		hits = append(hits, PolicyHit{Text: c.Content, Source: c.Source, Score: r.score})
	}
	return hits, nil
}

// Tokenize lowercases text, splits on non-alphanumerics and drops stopwords.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+'
	})
	out := fields[:0]
	for _, f := range fields {
		if strings.Trim(f, "+") == "" {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
