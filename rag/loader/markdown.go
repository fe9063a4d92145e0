package loader

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/BaSui01/retainflow/rag"
)

// MarkdownLoader loads markdown files. With SplitByHeadings each top-level
// ("# ") section becomes its own document carrying the heading in metadata;
// otherwise the whole file is one document and the chunker's heading
// separators do the splitting.
type MarkdownLoader struct {
	SplitByHeadings bool
}

func NewMarkdownLoader() *MarkdownLoader { return &MarkdownLoader{} }

func (l *MarkdownLoader) SupportedTypes() []string { return []string{".md", ".markdown"} }

func (l *MarkdownLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	content, err := readFile(ctx, source)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	name := filepath.Base(source)
	if !l.SplitByHeadings {
		return []rag.Document{{
			ID:       documentID(source, -1),
			Content:  content,
			Source:   name,
			Metadata: map[string]string{"loader": "markdown", "title": firstHeading(content)},
		}}, nil
	}

	var docs []rag.Document
	for i, sec := range splitSections(content) {
		docs = append(docs, rag.Document{
			ID:       documentID(source, i),
			Content:  sec.body,
			Source:   name,
			Metadata: map[string]string{"loader": "markdown", "title": sec.heading},
		})
	}
	return docs, nil
}

type section struct {
	heading string
	body    string
}

func splitSections(content string) []section {
	var (
		out []section
		cur section
		buf strings.Builder
	)
	flush := func() {
		cur.body = strings.TrimSpace(buf.String())
		if cur.body != "" {
			out = append(out, cur)
		}
		buf.Reset()
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			flush()
			cur = section{heading: strings.TrimSpace(strings.TrimPrefix(line, "# "))}
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()
	return out
}

func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "#") {
			return strings.TrimSpace(strings.TrimLeft(t, "#"))
		}
	}
	return ""
}
