package search

// Query is one /search request after transport decoding. K is the desired
// result count; zero means "use the configured default". Rerank and Deep
// are tri-state: nil falls back to configuration.
type Query struct {
	Text      string
	K         int
	Role      string
	Sector    string
	Rerank    *bool
	Deep      *bool
	NextTerms []string
}

// SpanEvidence is one evidence fragment attached to a result: either a
// stored span, or a chunk-snippet fallback when the corpus has no spans.
type SpanEvidence struct {
	Text       string    `json:"text"`
	Page       *int      `json:"page"`
	BBox       []float64 `json:"bbox"`
	ChunkIndex int       `json:"chunk_index"`
	SpanIndex  *int      `json:"span_index"`
	Score      float64   `json:"score,omitempty"`
}

// SignalBreakdown carries the raw per-signal values of the primary query
// for one chunk, before standardization and fusion.
type SignalBreakdown struct {
	BM25     float64 `json:"bm25"`
	WordVec  float64 `json:"word_vec"`
	CharVec  float64 `json:"char_vec"`
	Filename float64 `json:"filename"`
	Code     float64 `json:"code"`
	Fuzzy    float64 `json:"fuzzy"`
}

// Candidate is one ranked chunk with its score breakdown. Score is the
// fused hybrid score; FinalScore folds in the oracle blend (or the no-oracle
// fallback blend) and is what results are ordered by.
type Candidate struct {
	ChunkID      int64            `json:"chunk_id"`
	DocID        string           `json:"doc_id"`
	Filename     string           `json:"filename"`
	ChunkIndex   int              `json:"chunk_index"`
	Page         *int             `json:"page,omitempty"`
	SectionTitle string           `json:"section_title,omitempty"`
	Codes        []string         `json:"codes,omitempty"`
	Snippet      string           `json:"snippet"`
	Signals      *SignalBreakdown `json:"signals,omitempty"`
	Score        float64          `json:"score"`
	Coverage     float64          `json:"coverage"`
	OracleScore  *float64         `json:"score_ce,omitempty"`
	FinalScore   float64          `json:"score_final"`
	Evidence     []SpanEvidence   `json:"evidence"`

	row int // snapshot row index
}

// Result is the /search response payload.
type Result struct {
	AnticipatedTerms []string    `json:"anticipated_terms"`
	Items            []Candidate `json:"items"`
}

// CompareRequest asks for an evidence matrix: topic x criteria x documents.
type CompareRequest struct {
	Topic    string
	DocIDs   []string
	Criteria []string
	KPerCrit int
	Role     string
	Sector   string
}

// CompareCell holds the evidence one document contributes to one criterion.
type CompareCell struct {
	DocID    string         `json:"doc_id"`
	Evidence []SpanEvidence `json:"evidence"`
}

// CompareRow is one criterion across every requested document.
type CompareRow struct {
	Criterion string        `json:"criterion"`
	Docs      []CompareCell `json:"docs"`
}

// Answerability labels.
const (
	AnswerCertain = "CERTAIN"
	AnswerPartial = "PARTIAL"
	AnswerNR      = "NR"
)

// CompareResult is the /compare response payload. Answerability maps each
// document to CERTAIN, PARTIAL or NR.
type CompareResult struct {
	Topic         string            `json:"topic"`
	Criteria      []string          `json:"criteria"`
	Matrix        []CompareRow      `json:"matrix"`
	Answerability map[string]string `json:"answerability"`
}

// MMRInfo reports the diversity parameters in /health.
type MMRInfo struct {
	DocLambda   float64 `json:"doc_lambda"`
	ChunkLambda float64 `json:"chunk_lambda"`
	DocLimit    int     `json:"doc_limit"`
	ChunkLimit  int     `json:"chunk_limit"`
}

// Health is the /health snapshot of engine state and capabilities.
// Store is false while no corpus store is configured; Synonyms is nil when
// the synonym table is unreachable.
type Health struct {
	OK          bool    `json:"ok"`
	Store       bool    `json:"store"`
	Chunks      int     `json:"chunks"`
	Spans       int     `json:"spans"`
	BM25        bool    `json:"bm25"`
	TFIDFWord   bool    `json:"tfidf_word"`
	TFIDFChar   bool    `json:"tfidf_char"`
	Rerank      bool    `json:"rerank"`
	OracleModel string  `json:"model_ce,omitempty"`
	Deep        bool    `json:"deep"`
	MMR         MMRInfo `json:"mmr"`
	UseSpans    bool    `json:"use_spans"`
	PredictNext bool    `json:"predict_next"`
	Synonyms    *int    `json:"synonyms"`
}

// ReindexInfo summarizes one index build.
type ReindexInfo struct {
	Docs  int     `json:"docs"`
	Spans int     `json:"spans"`
	Secs  float64 `json:"secs"`
}
