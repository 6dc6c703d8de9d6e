package search

import (
	"context"
	"sort"
	"strings"

	"github.com/askveeva/deepsearch/internal/text"
)

// Oracle blend weights. Alpha comes from configuration; beta and gamma
// adapt to the query: coverage matters more when the user gave no code,
// the code flag matters more when they did.
const (
	blendBetaNoCode  = 0.25
	blendGammaNoCode = 0.10
	blendBetaCode    = 0.10
	blendGammaCode   = 0.30
	blendDelta       = 0.05
	blendHybridScale = 0.10
)

// No-oracle fallback blend weights.
const (
	fallbackHybrid   = 0.80
	fallbackCoverage = 0.15
	fallbackCode     = 0.05
)

// codeFlag is 1 when the candidate carries a procedure code.
func codeFlag(codes []string) float64 {
	for _, c := range codes {
		if text.IsProcedureCode(c) {
			return 1
		}
	}
	return 0
}

// roleHit is 1 when the candidate's filename mentions the caller's role or
// sector.
func roleHit(filename, role, sector string) float64 {
	fn := strings.ToLower(filename)
	if role != "" && strings.Contains(fn, strings.ToLower(role)) {
		return 1
	}
	if sector != "" && strings.Contains(fn, strings.ToLower(sector)) {
		return 1
	}
	return 0
}

// blendWithOracle scores the candidate pool with the cross-encoder oracle
// and blends oracle score, span coverage, code flag, role hit and the fused
// hybrid score into FinalScore. An oracle failure degrades to the local
// fallback blend.
func (e *Engine) blendWithOracle(ctx context.Context, q string, items []Candidate, role, sector string) []Candidate {
	pool := items
	if len(pool) > e.cfg.Rerank.Cand {
		pool = pool[:e.cfg.Rerank.Cand]
	}

	passages := make([]string, len(pool))
	for i, it := range pool {
		passages[i] = it.Filename + " — " + it.Snippet
	}
	scores, err := e.oracle.Score(ctx, q, passages)
	if err != nil {
		e.log.Warn("oracle scoring failed, falling back to local blend",
			"oracle", e.oracle.Name(), "error", err)
		return fallbackBlend(items)
	}

	alpha := e.cfg.Rerank.BlendAlpha
	beta, gamma := blendBetaNoCode, blendGammaNoCode
	if queryHasCode(q) {
		beta, gamma = blendBetaCode, blendGammaCode
	}

	for i := range pool {
		ce := scores[i]
		pool[i].OracleScore = &ce
		pool[i].FinalScore = alpha*ce +
			beta*pool[i].Coverage +
			gamma*codeFlag(pool[i].Codes) +
			blendDelta*roleHit(pool[i].Filename, role, sector) +
			(1-alpha)*blendHybridScale*pool[i].Score
	}
	sort.SliceStable(pool, func(a, b int) bool { return pool[a].FinalScore > pool[b].FinalScore })
	return pool
}

// fallbackBlend ranks candidates without an oracle: normalized hybrid score
// plus coverage plus the code flag.
func fallbackBlend(items []Candidate) []Candidate {
	for i := range items {
		items[i].FinalScore = fallbackHybrid*items[i].Score +
			fallbackCoverage*items[i].Coverage +
			fallbackCode*codeFlag(items[i].Codes)
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].FinalScore > items[b].FinalScore })
	return items
}
