package rag

// Document is one loaded policy file or file section.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Source   string            `json:"source"` // file name
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is an indexed slice of a Document.
type Chunk struct {
	ID      string `json:"id"`
	DocID   string `json:"doc_id"`
	Source  string `json:"source"`
	Content string `json:"content"`
	Index   int    `json:"index"`
}

// PolicyHit is one retrieval result.
type PolicyHit struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}
