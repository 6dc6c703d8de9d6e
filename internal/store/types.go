package store

// Document is one corpus document. The source of truth lives in the
// external store; documents are immutable once indexed.
type Document struct {
	ID       string
	Filename string
}

// Chunk is the atomic retrievable unit: one fragment of a document's
// content, joined with its document's filename at load time. Page and
// SectionTitle are optional columns; their presence is reported by the
// loader so callers consult a capability flag instead of re-probing.
type Chunk struct {
	ID           int64
	DocID        string
	ChunkIndex   int
	Content      string
	Filename     string
	Page         *int
	SectionTitle string
}

// Span is an optional fine-grained evidence fragment inside a chunk. The
// spans relation may be absent entirely; the evidence subsystem then
// degrades to chunk-level fallbacks.
type Span struct {
	ID         int64
	DocID      string
	ChunkIndex int
	SpanIndex  int
	Text       string
	Page       *int
	BBox       []float64
}

// SynonymEntry is an undirected domain-synonym hint: either side may match
// a query token.
type SynonymEntry struct {
	Term    string
	AltTerm string
	Weight  float64
}
