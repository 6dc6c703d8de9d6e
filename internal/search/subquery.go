package search

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/askveeva/deepsearch/internal/index"
	"github.com/askveeva/deepsearch/internal/text"
)

const (
	subqueryCap     = 10
	subqueryHeadLen = 6
	longQueryTokens = 10
	nextTermsCap    = 5

	subWeightHigh = 1.0
	subWeightLow  = 0.6
)

// generateSubqueries produces recall variants of one query: the query
// itself, code-only versions, a head-trimmed version for very long
// queries, FR/EN swaps, synonym extensions and next-term injections.
// Deterministic order, capped at subqueryCap.
func generateSubqueries(ctx context.Context, exp *expander, q string, nextTerms []string) []string {
	n := text.Normalize(q)
	seen := map[string]bool{q: true}
	subs := []string{q}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			subs = append(subs, s)
		}
	}

	for _, c := range text.ExtractCodes(q) {
		add(c)
	}

	toks := text.Tokenize(q)
	if len(toks) > longQueryTokens {
		add(strings.Join(toks[:subqueryHeadLen], " "))
	}

	for _, p := range bilingualDefaults {
		if strings.Contains(n, p.FR) {
			add(q + " " + p.EN)
		}
		for _, w := range strings.Fields(p.EN) {
			if strings.Contains(n, w) {
				add(q + " " + p.FR)
				break
			}
		}
	}

	head := toks
	if len(head) > subqueryHeadLen {
		head = head[:subqueryHeadLen]
	}
	for _, syn := range exp.synonymsFor(ctx, head) {
		if syn.AltTerm != "" {
			add(q + " " + syn.AltTerm)
		}
	}

	for i, t := range nextTerms {
		if i >= nextTermsCap {
			break
		}
		add(q + " " + t)
	}

	if len(subs) > subqueryCap {
		subs = subs[:subqueryCap]
	}
	return subs
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

// aggregateOverSubqueries blends per-subquery hybrid scores with linearly
// decaying weights: the original query dominates, injected variants trail.
// Subqueries score independently and in parallel.
func aggregateOverSubqueries(ctx context.Context, snap *index.Snapshot, exp *expander, q, role, sector string, nextTerms []string) ([]float64, error) {
	subs := append([]string{q}, generateSubqueries(ctx, exp, q, nextTerms)...)
	weights := linspace(subWeightHigh, subWeightLow, len(subs))

	results := make([][]float64, len(subs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sq := range subs {
		g.Go(func() error {
			results[i] = scoreHybridSingle(snap, sq, role, sector)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := make([]float64, snap.Len())
	for i, res := range results {
		for j, v := range res {
			total[j] += weights[i] * v
		}
	}
	return total, nil
}
