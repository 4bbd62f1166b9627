package search

// Result is one ranked hit.
type Result struct {
	// KnowledgeBase identifies which knowledge base the hit came from.
	KnowledgeBase string `json:"knowledge_base"`

	// DocID is the stable document identifier.
	DocID string `json:"doc_id"`

	// Path is the document's path relative to the knowledge-base root.
	Path string `json:"path"`

	// Score is the BM25 relevance score. Higher is more relevant.
	Score float64 `json:"score"`

	// Snippet is a short text excerpt around the first query-term match.
	Snippet string `json:"snippet,omitempty"`
}

// Config tunes ranking and snippet rendering.
type Config struct {
	// K1 controls term-frequency saturation.
	K1 float64

	// B controls document-length normalization, in [0,1].
	B float64

	// SnippetLength is the approximate snippet window in runes.
	SnippetLength int

	// CacheSize is how many document texts are kept for snippet reuse.
	CacheSize int
}

// DefaultConfig returns the standard BM25 parameters.
func DefaultConfig() Config {
	return Config{K1: 1.5, B: 0.75, SnippetLength: 160, CacheSize: 256}
}
