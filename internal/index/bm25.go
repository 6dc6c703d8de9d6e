package index

import "math"

// BM25 default parameters (Okapi).
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25 is a probabilistic term-frequency ranking structure over the token
// bags of the corpus. Immutable after construction; Scores is safe for
// concurrent use.
type BM25 struct {
	termFreqs []map[string]int // per-chunk term frequencies
	docFreq   map[string]int   // term -> number of chunks containing it
	docLens   []float64
	avgLen    float64
	n         int
}

// NewBM25 builds the structure from per-chunk token bags. Returns nil for
// an empty corpus so the signal degrades to zero.
func NewBM25(tokenBags [][]string) *BM25 {
	if len(tokenBags) == 0 {
		return nil
	}

	b := &BM25{
		termFreqs: make([]map[string]int, len(tokenBags)),
		docFreq:   make(map[string]int),
		docLens:   make([]float64, len(tokenBags)),
		n:         len(tokenBags),
	}

	var total float64
	for i, bag := range tokenBags {
		tf := make(map[string]int, len(bag))
		for _, t := range bag {
			tf[t]++
		}
		b.termFreqs[i] = tf
		b.docLens[i] = float64(len(bag))
		total += float64(len(bag))
		for t := range tf {
			b.docFreq[t]++
		}
	}
	b.avgLen = total / float64(len(tokenBags))
	if b.avgLen == 0 {
		b.avgLen = 1
	}
	return b
}

// Scores returns the dense per-chunk BM25 score array for a query token
// bag. All zeros when the query has no tokens.
func (b *BM25) Scores(queryTokens []string) []float64 {
	scores := make([]float64, b.n)
	if len(queryTokens) == 0 {
		return scores
	}

	nDocs := float64(b.n)
	for _, term := range queryTokens {
		df := float64(b.docFreq[term])
		if df == 0 {
			continue
		}
		idf := math.Log((nDocs-df+0.5)/(df+0.5) + 1)

		for i, tfMap := range b.termFreqs {
			tf := float64(tfMap[term])
			if tf == 0 {
				continue
			}
			dl := b.docLens[i]
			scores[i] += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*(1-bm25B+bm25B*dl/b.avgLen))
		}
	}
	return scores
}

// Len returns the number of indexed chunks.
func (b *BM25) Len() int {
	return b.n
}
