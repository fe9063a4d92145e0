package main

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/rag"
	"github.com/BaSui01/retainflow/rag/loader"
)

// policyIndex is the live BM25 index over the policy directory. Reload
// swaps in a fresh index; searches in flight keep the one they started on.
type policyIndex struct {
	dir     string
	chunker *rag.RecursiveChunker
	current atomic.Pointer[rag.Index]
	logger  *zap.Logger
}

func newPolicyIndex(cfg config.RetrievalConfig, logger *zap.Logger) *policyIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &policyIndex{
		dir: cfg.PolicyDir,
		chunker: rag.NewRecursiveChunker(rag.ChunkingConfig{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		}),
		logger: logger.With(zap.String("component", "policy_index")),
	}
}

// Reload rebuilds the index from disk. On error the previous index stays.
func (p *policyIndex) Reload(ctx context.Context) (*rag.Index, error) {
	start := time.Now()
	docs, err := loader.LoadDir(ctx, p.dir, p.logger)
	if err != nil {
		return nil, err
	}
	idx := rag.BuildIndex(docs, p.chunker)
	p.current.Store(idx)

	p.logger.Info("policy index built",
		zap.String("dir", p.dir),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", idx.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return idx, nil
}

// Search implements rag.Retriever.
func (p *policyIndex) Search(ctx context.Context, query string, k int) ([]rag.PolicyHit, error) {
	idx := p.current.Load()
	if idx == nil {
		return nil, nil
	}
	return idx.Search(ctx, query, k)
}

// Len 当前索引的分块数
func (p *policyIndex) Len() int {
	if idx := p.current.Load(); idx != nil {
		return idx.Len()
	}
	return 0
}

// Watch polls the policy directory and reloads on change until ctx is done.
func (p *policyIndex) Watch(ctx context.Context, interval time.Duration) error {
	w := config.NewFileWatcher([]string{p.dir}, interval, p.logger)
	w.OnChange(func(ctx context.Context) {
		if _, err := p.Reload(ctx); err != nil {
			p.logger.Warn("policy reload failed, keeping previous index", zap.Error(err))
		}
	})
	return w.Run(ctx)
}
