package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BaSui01/retainflow/rag"
)

// DocumentLoader loads documents from a file path.
type DocumentLoader interface {
	Load(ctx context.Context, source string) ([]rag.Document, error)
	SupportedTypes() []string
}

// Registry routes Load calls by file extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]DocumentLoader // 小写扩展名（含点） -> loader
}

// NewRegistry creates a registry with the text, markdown and html loaders.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]DocumentLoader)}
	for _, l := range []DocumentLoader{NewTextLoader(), NewMarkdownLoader(), NewHTMLLoader()} {
		for _, ext := range l.SupportedTypes() {
			r.loaders[strings.ToLower(ext)] = l
		}
	}
	return r
}

// Register adds or replaces the loader for ext (e.g. ".rst").
func (r *Registry) Register(ext string, l DocumentLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[strings.ToLower(ext)] = l
}

// Supports reports whether a loader exists for path's extension.
func (r *Registry) Supports(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load picks the loader by file extension.
func (r *Registry) Load(ctx context.Context, source string) ([]rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		return nil, fmt.Errorf("loader: cannot determine file type for %q", source)
	}
	r.mu.RLock()
	l, ok := r.loaders[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("loader: no loader registered for extension %q", ext)
	}
	return l.Load(ctx, source)
}

// SupportedTypes returns registered extensions, sorted.
func (r *Registry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func readFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("loader: read %s: %w", path, err)
	}
	return string(data), nil
}

// documentID is the file's base name, optionally suffixed with a section index.
func documentID(path string, section int) string {
	base := filepath.Base(path)
	if section < 0 {
		return base
	}
	return fmt.Sprintf("%s:%d", base, section)
}
