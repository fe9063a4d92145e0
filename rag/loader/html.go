package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/BaSui01/retainflow/rag"
)

// HTMLLoader extracts visible text from html policy pages. Block elements
// become paragraph breaks and headings are rendered as markdown headings so
// the chunker's separators apply.
type HTMLLoader struct{}

func NewHTMLLoader() *HTMLLoader { return &HTMLLoader{} }

func (l *HTMLLoader) SupportedTypes() []string { return []string{".html", ".htm"} }

func (l *HTMLLoader) Load(ctx context.Context, source string) ([]rag.Document, error) {
	raw, err := readFile(ctx, source)
	if err != nil {
		return nil, err
	}
	title, text, err := ExtractHTMLText(raw)
	if err != nil {
		return nil, fmt.Errorf("loader: parse %s: %w", source, err)
	}
	if text == "" {
		return nil, nil
	}
	return []rag.Document{{
		ID:       documentID(source, -1),
		Content:  text,
		Source:   filepath.Base(source),
		Metadata: map[string]string{"loader": "html", "title": title},
	}}, nil
}

// ExtractHTMLText returns the document title and its readable text.
func ExtractHTMLText(raw string) (title, text string, err error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				if n.Data == "head" {
					title = findTitle(n)
				}
				return
			case "h1":
				b.WriteString("\n\n# ")
			case "h2":
				b.WriteString("\n## ")
			case "h3", "h4", "h5", "h6":
				b.WriteString("\n### ")
			case "li":
				b.WriteString("\n- ")
			case "br":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString(" ")
				}
				b.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			b.WriteString("\n\n")
		}
	}
	walk(root)
	return title, collapseBlankLines(b.String()), nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "ul", "ol", "table", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return true
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " ")
		if strings.TrimSpace(l) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, strings.TrimLeft(l, " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
