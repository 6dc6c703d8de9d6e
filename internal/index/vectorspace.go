package index

import (
	"math"
	"sort"
	"strings"

	"github.com/askveeva/deepsearch/internal/text"
)

// Analyzer selects the n-gram unit of a vector space.
type Analyzer int

const (
	// AnalyzerWord produces word n-grams over the domain tokenizer output.
	AnalyzerWord Analyzer = iota
	// AnalyzerChar produces character n-grams over the normalized string,
	// spaces included.
	AnalyzerChar
)

// SparseVec is a sparse term-id -> weight vector. Rows produced by a
// VectorSpace are L2-normalized, so Dot is cosine similarity.
type SparseVec map[int]float64

// Dot computes the sparse dot product. Iterates the smaller vector.
func Dot(a, b SparseVec) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var sum float64
	for id, w := range a {
		if bw, ok := b[id]; ok {
			sum += w * bw
		}
	}
	return sum
}

// VectorSpace is a fitted TF-IDF n-gram space with the corpus rows cached.
// Immutable after Fit; Transform and Row are safe for concurrent use.
type VectorSpace struct {
	analyzer Analyzer
	minN     int
	maxN     int

	vocab map[string]int
	idf   []float64
	rows  []SparseVec
}

// FitVectorSpace fits a space over the corpus texts. Terms must appear in
// at least minDF chunks and in at most maxDF (a proportion) of them.
// Returns nil when the document-frequency cuts leave an empty vocabulary,
// so the signal degrades to zero instead of producing degenerate rows.
func FitVectorSpace(texts []string, analyzer Analyzer, minN, maxN, minDF int, maxDF float64) *VectorSpace {
	if len(texts) == 0 {
		return nil
	}

	n := len(texts)
	grams := make([][]string, n)
	docFreq := make(map[string]int)
	for i, t := range texts {
		g := analyze(t, analyzer, minN, maxN)
		grams[i] = g
		seen := make(map[string]bool, len(g))
		for _, term := range g {
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	maxCount := maxDF * float64(n)
	kept := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= minDF && float64(df) <= maxCount {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	sort.Strings(kept)

	v := &VectorSpace{
		analyzer: analyzer,
		minN:     minN,
		maxN:     maxN,
		vocab:    make(map[string]int, len(kept)),
		idf:      make([]float64, len(kept)),
	}
	for id, term := range kept {
		v.vocab[term] = id
		// Smoothed idf: every term behaves as if seen in one extra chunk.
		v.idf[id] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	v.rows = make([]SparseVec, n)
	for i, g := range grams {
		v.rows[i] = v.vectorize(g)
	}
	return v
}

// Transform maps free text into the fitted space. Terms outside the
// vocabulary are dropped; a fully out-of-vocabulary text yields an empty
// vector.
func (v *VectorSpace) Transform(s string) SparseVec {
	return v.vectorize(analyze(s, v.analyzer, v.minN, v.maxN))
}

// Row returns the cached, L2-normalized corpus row.
func (v *VectorSpace) Row(i int) SparseVec {
	return v.rows[i]
}

// Len returns the number of corpus rows.
func (v *VectorSpace) Len() int {
	return len(v.rows)
}

// VocabSize returns the number of retained terms.
func (v *VectorSpace) VocabSize() int {
	return len(v.vocab)
}

// Similarities returns the dense cosine-similarity array of a query vector
// against every corpus row.
func (v *VectorSpace) Similarities(q SparseVec) []float64 {
	sims := make([]float64, len(v.rows))
	if len(q) == 0 {
		return sims
	}
	for i, row := range v.rows {
		sims[i] = Dot(q, row)
	}
	return sims
}

// vectorize counts terms, applies idf and L2-normalizes.
func (v *VectorSpace) vectorize(grams []string) SparseVec {
	vec := make(SparseVec)
	for _, term := range grams {
		if id, ok := v.vocab[term]; ok {
			vec[id]++
		}
	}
	var norm float64
	for id := range vec {
		vec[id] *= v.idf[id]
		norm += vec[id] * vec[id]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for id := range vec {
			vec[id] /= norm
		}
	}
	return vec
}

// analyze produces the n-gram bag for one text.
func analyze(s string, analyzer Analyzer, minN, maxN int) []string {
	if analyzer == AnalyzerChar {
		return charNgrams(text.Normalize(s), minN, maxN)
	}
	return wordNgrams(text.Tokenize(s), minN, maxN)
}

func wordNgrams(tokens []string, minN, maxN int) []string {
	var grams []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

func charNgrams(s string, minN, maxN int) []string {
	runes := []rune(s)
	var grams []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(runes); i++ {
			grams = append(grams, string(runes[i:i+n]))
		}
	}
	return grams
}
