package loader

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/BaSui01/retainflow/rag"
)

// TextLoader loads a plain text file as one document.
type TextLoader struct{}

func NewTextLoader() *TextLoader { return &TextLoader{} }

func (l *TextLoader) SupportedTypes() []string { return []string{".txt"} }

func (l *TextLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	content, err := readFile(ctx, source)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	return []rag.Document{{
		ID:       documentID(source, -1),
		Content:  content,
		Source:   filepath.Base(source),
		Metadata: map[string]string{"loader": "text"},
	}}, nil
}
