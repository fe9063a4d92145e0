// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

// Package loader reads policy documents (.md, .markdown, .txt, .html) from
// disk into rag.Document values. LoadDir walks a directory and loads files
// in parallel.
package loader
