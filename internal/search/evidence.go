package search

import (
	"sort"

	"github.com/askveeva/deepsearch/internal/index"
	"github.com/askveeva/deepsearch/internal/text"
)

// spanScoreStabilizer keeps a non-empty span ahead of an empty one when
// neither overlaps the query.
const spanScoreStabilizer = 0.0001

// bestSpans ranks a document's evidence spans by token overlap with the
// query and returns the top limit. Empty when the corpus has no spans.
func bestSpans(snap *index.Snapshot, docID, query string, limit int) []SpanEvidence {
	spans := snap.SpansForDoc(docID)
	if len(spans) == 0 {
		return nil
	}

	qTokens := text.Tokenize(query)
	qset := make(map[string]bool, len(qTokens))
	for _, t := range qTokens {
		qset[t] = true
	}

	type scored struct {
		score float64
		idx   int
	}
	ranked := make([]scored, len(spans))
	for i, sp := range spans {
		toks := text.Tokenize(sp.Text)
		seen := make(map[string]bool, len(toks))
		var inter int
		for _, t := range toks {
			if qset[t] && !seen[t] {
				seen[t] = true
				inter++
			}
		}
		sc := float64(inter)
		if len(toks) > 0 {
			sc += spanScoreStabilizer
		}
		ranked[i] = scored{score: sc, idx: i}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]SpanEvidence, 0, limit)
	for _, r := range ranked[:limit] {
		sp := spans[r.idx]
		si := sp.SpanIndex
		out = append(out, SpanEvidence{
			Text:       sp.Text,
			Page:       sp.Page,
			BBox:       sp.BBox,
			ChunkIndex: sp.ChunkIndex,
			SpanIndex:  &si,
		})
	}
	return out
}

// spanCoverage is the evidence-contract score of one document for one
// query: found spans over wanted spans, capped at 1.
func spanCoverage(snap *index.Snapshot, docID, query string, want int) float64 {
	if want < 1 {
		want = 1
	}
	found := len(bestSpans(snap, docID, query, want))
	cov := float64(found) / float64(want)
	if cov > 1 {
		cov = 1
	}
	return cov
}

// answerabilityLabel grades evidence counts: CERTAIN when at least need
// criteria have evidence, PARTIAL when exactly one does, NR otherwise.
func answerabilityLabel(evidenceCounts []int, need int) string {
	var tot int
	for _, c := range evidenceCounts {
		if c > 0 {
			tot++
		}
	}
	if tot >= need {
		return AnswerCertain
	}
	if tot == 1 {
		return AnswerPartial
	}
	return AnswerNR
}
