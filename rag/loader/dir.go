package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/retainflow/rag"
)

// maxParallelLoads bounds concurrent file reads in LoadDir.
const maxParallelLoads = 8

// LoadDir loads every supported file under dir. Unsupported files are
// skipped; a missing dir yields no documents. Documents are returned in
// file-path order regardless of load order.
func LoadDir(ctx context.Context, dir string, logger *zap.Logger) ([]rag.Document, error) {
	return NewRegistry().LoadDir(ctx, dir, logger)
}

// LoadDir is LoadDir using r's loaders.
func (r *Registry) LoadDir(ctx context.Context, dir string, logger *zap.Logger) ([]rag.Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && r.Supports(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("policy directory not found", zap.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("loader: walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	results := make([][]rag.Document, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, p := range paths {
		g.Go(func() error {
			docs, err := r.Load(gctx, p)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []rag.Document
	for _, docs := range results {
		all = append(all, docs...)
	}
	logger.Info("policy documents loaded",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.Int("documents", len(all)))
	return all, nil
}
