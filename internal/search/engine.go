// Package search implements the retrieval engine: multi-signal hybrid
// scoring over an immutable index snapshot, sub-query aggregation, oracle
// reranking, two-stage diversity and span-based evidence.
//
// One Engine serves many concurrent readers. Reindexing builds a fresh
// snapshot off to the side and publishes it with a single atomic pointer
// swap; in-flight requests keep the snapshot they started with.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/askveeva/deepsearch/internal/config"
	engerr "github.com/askveeva/deepsearch/internal/errors"
	"github.com/askveeva/deepsearch/internal/index"
	"github.com/askveeva/deepsearch/internal/store"
	"github.com/askveeva/deepsearch/internal/text"
)

const (
	snippetMaxChars         = 900
	compareSnippetMaxChars  = 350
	compareKPerCriterionMax = 6
)

// Engine is the retrieval engine over one corpus store.
type Engine struct {
	cfg     *config.Config
	store   *store.Store
	builder *index.Builder
	oracle  Oracle
	exp     *expander
	log     *slog.Logger

	snap      atomic.Pointer[index.Snapshot]
	reindexMu sync.Mutex
}

// New wires an engine. oracle may be nil when reranking is disabled.
func New(cfg *config.Config, st *store.Store, oracle Oracle, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:     cfg,
		store:   st,
		builder: index.NewBuilder(st, log),
		oracle:  oracle,
		exp:     newExpander(st, log),
		log:     log,
	}
}

// Snapshot returns the currently published index snapshot, or nil before
// the first build.
func (e *Engine) Snapshot() *index.Snapshot {
	return e.snap.Load()
}

// Reindex rebuilds the index from the store and publishes the new
// snapshot. Builds are serialized; readers are never blocked.
func (e *Engine) Reindex(ctx context.Context) (*ReindexInfo, error) {
	e.reindexMu.Lock()
	defer e.reindexMu.Unlock()

	snap, err := e.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	// The oracle capability is stamped here, not in the builder: the builder
	// only sees the store, while oracle wiring belongs to the engine.
	snap.Caps.HasOracle = e.oracle != nil
	e.snap.Store(snap)
	return &ReindexInfo{
		Docs:  snap.Len(),
		Spans: snap.SpanCount(),
		Secs:  snap.Elapsed.Seconds(),
	}, nil
}

// ensureIndex returns the published snapshot, building one first if none
// exists yet.
func (e *Engine) ensureIndex(ctx context.Context) (*index.Snapshot, error) {
	if snap := e.snap.Load(); snap != nil {
		return snap, nil
	}
	if _, err := e.Reindex(ctx); err != nil {
		return nil, err
	}
	return e.snap.Load(), nil
}

// snapshotOrEmpty is the query-path variant of ensureIndex: when no index
// can be built because the store is unconfigured or unreachable, queries
// degrade to empty results over an empty snapshot instead of failing. An
// explicit Reindex still surfaces those conditions.
func (e *Engine) snapshotOrEmpty(ctx context.Context) (*index.Snapshot, error) {
	snap, err := e.ensureIndex(ctx)
	if err == nil {
		return snap, nil
	}
	switch engerr.GetCode(err) {
	case engerr.ErrCodeStoreUnconfigured, engerr.ErrCodeStoreUnreachable:
		e.log.Warn("serving without an index", "error", err)
		return &index.Snapshot{}, nil
	}
	return nil, err
}

// Search runs the full pipeline for one query. An empty index yields an
// empty result, not an error.
func (e *Engine) Search(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, engerr.New(engerr.ErrCodeInvalidInput, "empty query", nil)
	}
	snap, err := e.snapshotOrEmpty(ctx)
	if err != nil {
		return nil, err
	}

	qn := text.NormalizeCodes(q.Text)
	k := q.K
	if k <= 0 {
		k = e.cfg.TopKDefault
	}
	deep := e.cfg.Deep
	if q.Deep != nil {
		deep = *q.Deep
	}
	rerank := e.cfg.Rerank.Enabled && snap.Caps.HasOracle
	if q.Rerank != nil {
		rerank = *q.Rerank && snap.Caps.HasOracle
	}

	nextTerms := q.NextTerms
	if len(nextTerms) > nextTermsCap {
		nextTerms = nextTerms[:nextTermsCap]
	}
	if len(nextTerms) == 0 && e.cfg.PredictNext {
		nextTerms = predictNextTerms(qn, "", nextTermsCap)
	}

	items, err := e.deepCandidates(ctx, snap, qn, k, q.Role, q.Sector, nextTerms, deep, rerank)
	if err != nil {
		return nil, err
	}

	// Attach evidence once per document, shared across that document's
	// items within this request.
	useSpans := snap.Caps.HasSpans && e.cfg.Evidence.UseSpans
	docSpans := make(map[string][]SpanEvidence)
	for i := range items {
		if !useSpans {
			items[i].Evidence = []SpanEvidence{}
			continue
		}
		ev, ok := docSpans[items[i].DocID]
		if !ok {
			ev = bestSpans(snap, items[i].DocID, qn, e.cfg.Evidence.SpansTop)
			docSpans[items[i].DocID] = ev
		}
		if ev == nil {
			ev = []SpanEvidence{}
		}
		items[i].Evidence = ev
	}

	if len(items) > k {
		items = items[:k]
	}
	return &Result{AnticipatedTerms: nextTerms, Items: items}, nil
}

// deepCandidates produces the ranked candidate list: sub-query aggregated
// hybrid scores, oracle (or fallback) blend, then two-stage diversity.
func (e *Engine) deepCandidates(ctx context.Context, snap *index.Snapshot, q string, k int, role, sector string, nextTerms []string, deep, rerank bool) ([]Candidate, error) {
	if snap.Empty() {
		return []Candidate{}, nil
	}

	query := q
	if deep {
		query = e.exp.Expand(ctx, q)
	}

	fetchK := k
	if rerank && e.cfg.Rerank.Keep > fetchK {
		fetchK = e.cfg.Rerank.Keep
	}

	scores, err := aggregateOverSubqueries(ctx, snap, e.exp, query, role, sector, nextTerms)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if len(order) > fetchK {
		order = order[:fetchK]
	}

	// Raw signals of the primary query, reported alongside the aggregated
	// score so callers can see what drove a ranking.
	sig := signalArrays(snap, query)

	useSpans := snap.Caps.HasSpans && e.cfg.Evidence.UseSpans
	items := make([]Candidate, 0, len(order))
	for _, i := range order {
		c := snap.Chunks[i]
		it := Candidate{
			ChunkID:      c.ID,
			DocID:        c.DocID,
			Filename:     c.Filename,
			ChunkIndex:   c.ChunkIndex,
			Page:         c.Page,
			SectionTitle: c.SectionTitle,
			Codes:        snap.Codes[i],
			Snippet:      truncateRunes(c.Content, snippetMaxChars),
			Signals: &SignalBreakdown{
				BM25:     sig.bm[i],
				WordVec:  sig.word[i],
				CharVec:  sig.char[i],
				Filename: sig.fname[i],
				Code:     sig.code[i],
				Fuzzy:    sig.fuzzy[i],
			},
			Score: scores[i],
			row:   i,
		}
		if useSpans {
			it.Coverage = spanCoverage(snap, c.DocID, query, e.cfg.Evidence.SpansTop)
		}
		items = append(items, it)
	}

	if rerank {
		items = e.blendWithOracle(ctx, query, items, role, sector)
	} else {
		items = fallbackBlend(items)
	}

	if deep {
		items = mmrTwoStage(snap, e.cfg.MMR, items, fetchK, query)
	}
	return truncate(items, fetchK), nil
}

// Compare builds the evidence matrix: each criterion scored against each
// requested document, with chunk-snippet fallback when spans are missing.
func (e *Engine) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, engerr.New(engerr.ErrCodeInvalidInput, "empty topic", nil)
	}
	if len(req.DocIDs) == 0 {
		return nil, engerr.New(engerr.ErrCodeInvalidInput, "no documents to compare", nil)
	}
	snap, err := e.snapshotOrEmpty(ctx)
	if err != nil {
		return nil, err
	}

	// An empty index is not an error: every cell comes back without
	// evidence and every document classifies as NR.
	topic := text.NormalizeCodes(req.Topic)
	crits := req.Criteria
	if len(crits) == 0 {
		crits = criteriaForLang(guessLang(topic))
	}
	kpc := req.KPerCrit
	if kpc < 1 {
		kpc = 3
	}
	if kpc > compareKPerCriterionMax {
		kpc = compareKPerCriterionMax
	}

	useSpans := snap.Caps.HasSpans && e.cfg.Evidence.UseSpans
	coverCounts := make(map[string]int, len(req.DocIDs))
	matrix := make([]CompareRow, 0, len(crits))

	for _, crit := range crits {
		subq := fmt.Sprintf("%s %s", topic, crit)
		row := CompareRow{Criterion: crit, Docs: make([]CompareCell, 0, len(req.DocIDs))}
		for _, docID := range req.DocIDs {
			var ev []SpanEvidence
			if useSpans {
				ev = bestSpans(snap, docID, subq, kpc)
			}
			if len(ev) == 0 {
				ev = e.fallbackSnippets(snap, subq, docID, kpc, req.Role, req.Sector)
			}
			if len(ev) > 0 {
				coverCounts[docID]++
			}
			if ev == nil {
				ev = []SpanEvidence{}
			}
			row.Docs = append(row.Docs, CompareCell{DocID: docID, Evidence: ev})
		}
		matrix = append(matrix, row)
	}

	answerability := make(map[string]string, len(req.DocIDs))
	for _, docID := range req.DocIDs {
		answerability[docID] = answerabilityLabel([]int{coverCounts[docID]}, 1)
	}

	return &CompareResult{
		Topic:         topic,
		Criteria:      crits,
		Matrix:        matrix,
		Answerability: answerability,
	}, nil
}

// fallbackSnippets picks a document's best chunks for one criterion by the
// hybrid score, when no spans exist for it.
func (e *Engine) fallbackSnippets(snap *index.Snapshot, subq, docID string, limit int, role, sector string) []SpanEvidence {
	scores := scoreHybridSingle(snap, subq, role, sector)

	type pair struct {
		score float64
		idx   int
	}
	var pairs []pair
	for i, c := range snap.Chunks {
		if c.DocID == docID {
			pairs = append(pairs, pair{score: scores[i], idx: i})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].score > pairs[b].score })
	if limit > len(pairs) {
		limit = len(pairs)
	}

	out := make([]SpanEvidence, 0, limit)
	for _, p := range pairs[:limit] {
		c := snap.Chunks[p.idx]
		out = append(out, SpanEvidence{
			Text:       truncateRunes(c.Content, compareSnippetMaxChars),
			Page:       c.Page,
			ChunkIndex: c.ChunkIndex,
			Score:      p.score,
		})
	}
	return out
}

// Health reports engine state and corpus capabilities.
func (e *Engine) Health(ctx context.Context) Health {
	h := Health{
		OK:          true,
		Store:       e.store.Configured(),
		Deep:        e.cfg.Deep,
		PredictNext: e.cfg.PredictNext,
		MMR: MMRInfo{
			DocLambda:   e.cfg.MMR.LambdaDoc,
			ChunkLambda: e.cfg.MMR.LambdaChunk,
			DocLimit:    e.cfg.MMR.LimitDoc,
			ChunkLimit:  e.cfg.MMR.LimitChunk,
		},
	}

	if snap := e.snap.Load(); snap != nil {
		h.Chunks = snap.Len()
		h.Spans = snap.SpanCount()
		h.BM25 = snap.BM25 != nil
		h.TFIDFWord = snap.WordVec != nil
		h.TFIDFChar = snap.CharVec != nil
		h.UseSpans = snap.Caps.HasSpans && e.cfg.Evidence.UseSpans
	}

	if e.cfg.Rerank.Enabled && e.oracle != nil && e.oracle.Available(ctx) {
		h.Rerank = true
		h.OracleModel = e.oracle.Name()
	}

	if n, err := e.store.SynonymCount(ctx); err == nil {
		h.Synonyms = &n
	}
	return h
}

// truncateRunes cuts s to at most max runes.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}
