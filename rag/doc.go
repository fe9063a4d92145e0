// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package rag provides policy retrieval for the retention agent.

Policy documents (markdown, text and html files, see subpackage loader)
are split by RecursiveChunker into overlapping chunks and indexed by a
BM25 keyword Index. SafeSearcher wraps any Retriever so that lookups
never fail: errors and panics are logged and yield no hits.

	docs, _ := loader.LoadDir(ctx, "data/policies", logger)
	idx := rag.BuildIndex(docs, rag.NewRecursiveChunker(rag.DefaultChunkingConfig()))
	searcher := rag.NewSafeSearcher(idx, logger)
	hits := searcher.SearchPolicies(ctx, "can I pause Care+?", 2)
*/
package rag
