package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Retriever is a fallible policy search backend.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]PolicyHit, error)
}

// SafeSearcher turns a Retriever into a best-effort lookup.
type SafeSearcher struct {
	r      Retriever
	logger *zap.Logger
}

// NewSafeSearcher wraps r. A nil r yields a searcher that always returns no hits.
func NewSafeSearcher(r Retriever, logger *zap.Logger) *SafeSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafeSearcher{r: r, logger: logger.With(zap.String("component", "policy_search"))}
}

// SearchPolicies never fails; errors and panics from the backend yield nil.
func (s *SafeSearcher) SearchPolicies(ctx context.Context, query string, k int) (hits []PolicyHit) {
	if s.r == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("policy search panicked", zap.String("panic", fmt.Sprint(rec)))
			hits = nil
		}
	}()

	hits, err := s.r.Search(ctx, query, k)
	if err != nil {
		s.logger.Warn("policy search failed", zap.Error(err))
		return nil
	}
	return hits
}
