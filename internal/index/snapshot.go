// Package index builds immutable in-memory retrieval structures over the
// corpus store: a BM25 ranking structure and two TF-IDF n-gram vector
// spaces, plus the token bags and canonical codes the scorer consumes.
//
// A Snapshot is built once by a single writer and then shared by any number
// of concurrent readers; nothing in it is mutated after Build returns.
package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/askveeva/deepsearch/internal/store"
	"github.com/askveeva/deepsearch/internal/text"
)

// Vector-space shape. Word n-grams catch phrasing, char n-grams catch
// morphology and typos; the char space tolerates a lower maxDF because
// short grams saturate faster.
const (
	wordNgramMin = 1
	wordNgramMax = 3
	wordMinDF    = 2
	wordMaxDF    = 0.95

	charNgramMin = 3
	charNgramMax = 5
	charMinDF    = 2
	charMaxDF    = 0.90
)

// Capabilities records which optional features the snapshot carries.
// Computed once at build so request paths branch on flags, not on probes.
// HasOracle is stamped by the engine when it publishes the snapshot, since
// only the engine knows whether a relevance oracle is wired.
type Capabilities struct {
	HasSpans    bool `json:"has_spans"`
	HasSynonyms bool `json:"has_synonyms"`
	HasOracle   bool `json:"has_oracle"`
	HasTitle    bool `json:"has_title"`
	HasPage     bool `json:"has_page"`
}

// Snapshot is the immutable index over one corpus load.
type Snapshot struct {
	Chunks []store.Chunk

	// Tokens holds the per-chunk token bag over content only — filename
	// relevance enters through its own signals; FileTokens holds the
	// filename-only bag; Codes the canonical procedure codes found in
	// content or filename.
	Tokens     [][]string
	FileTokens [][]string
	Codes      [][]string

	BM25    *BM25
	WordVec *VectorSpace
	CharVec *VectorSpace

	Spans   []store.Span
	spanIdx map[string][]int // doc id -> indices into Spans

	Caps     Capabilities
	DocCount int
	BuiltAt  time.Time
	Elapsed  time.Duration
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int {
	return len(s.Chunks)
}

// Empty reports whether the snapshot has no chunks.
func (s *Snapshot) Empty() bool {
	return len(s.Chunks) == 0
}

// SpanCount returns the number of loaded evidence spans.
func (s *Snapshot) SpanCount() int {
	return len(s.Spans)
}

// SpansForDoc returns the evidence spans of one document, in span order.
func (s *Snapshot) SpansForDoc(docID string) []store.Span {
	idxs := s.spanIdx[docID]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]store.Span, len(idxs))
	for i, j := range idxs {
		out[i] = s.Spans[j]
	}
	return out
}

// Builder constructs snapshots from the corpus store.
type Builder struct {
	store *store.Store
	log   *slog.Logger
}

// NewBuilder returns a Builder reading from s.
func NewBuilder(s *store.Store, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{store: s, log: log}
}

// Build loads the corpus and fits every retrieval structure. An empty
// corpus yields a valid empty snapshot, not an error. Optional features
// that fail to load degrade the capability flags instead of failing the
// build.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	load, err := b.store.LoadChunks(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Chunks:  load.Chunks,
		spanIdx: make(map[string][]int),
		BuiltAt: start,
	}
	snap.Caps.HasPage = load.HasPage
	snap.Caps.HasTitle = load.HasTitle

	if len(load.Chunks) == 0 {
		snap.Elapsed = time.Since(start)
		b.log.Warn("index built over empty corpus")
		return snap, nil
	}

	n := len(load.Chunks)
	snap.Tokens = make([][]string, n)
	snap.FileTokens = make([][]string, n)
	snap.Codes = make([][]string, n)
	texts := make([]string, n)
	docs := make(map[string]bool)

	for i, c := range load.Chunks {
		combined := c.Content + " " + c.Filename
		texts[i] = combined
		snap.Tokens[i] = text.Tokenize(c.Content)
		snap.FileTokens[i] = text.Tokenize(c.Filename)
		snap.Codes[i] = text.ExtractCodes(combined)
		docs[c.DocID] = true
	}
	snap.DocCount = len(docs)

	snap.BM25 = NewBM25(snap.Tokens)
	snap.WordVec = FitVectorSpace(texts, AnalyzerWord, wordNgramMin, wordNgramMax, wordMinDF, wordMaxDF)
	snap.CharVec = FitVectorSpace(texts, AnalyzerChar, charNgramMin, charNgramMax, charMinDF, charMaxDF)

	if spans, err := b.store.LoadSpans(ctx); err != nil {
		b.log.Warn("span load failed, continuing without evidence spans", "error", err)
	} else if len(spans) > 0 {
		snap.Spans = spans
		for i, sp := range spans {
			snap.spanIdx[sp.DocID] = append(snap.spanIdx[sp.DocID], i)
		}
		snap.Caps.HasSpans = true
	}

	if ok, err := b.store.TableExists(ctx, "askv_synonyms"); err == nil && ok {
		snap.Caps.HasSynonyms = true
	}

	snap.Elapsed = time.Since(start)
	b.log.Info("index built",
		"chunks", n,
		"docs", snap.DocCount,
		"spans", snap.SpanCount(),
		"word_vocab", vocabOrZero(snap.WordVec),
		"char_vocab", vocabOrZero(snap.CharVec),
		"elapsed", snap.Elapsed)
	return snap, nil
}

func vocabOrZero(v *VectorSpace) int {
	if v == nil {
		return 0
	}
	return v.VocabSize()
}
