package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitVectorSpace_DocFrequencyCuts(t *testing.T) {
	texts := []string{
		"waste disposal steps",
		"waste disposal records",
		"line changeover settings",
	}
	v := FitVectorSpace(texts, AnalyzerWord, 1, 1, 2, 0.95)
	require.NotNil(t, v)

	// "waste" and "disposal" appear in 2 of 3 chunks and survive; every
	// singleton term is cut by minDF.
	assert.Equal(t, 2, v.VocabSize())
	assert.Empty(t, v.Transform("changeover"))
	assert.NotEmpty(t, v.Transform("waste"))
}

func TestFitVectorSpace_MaxDFCutsUbiquitousTerms(t *testing.T) {
	texts := []string{
		"procedure waste segregation",
		"procedure waste segregation steps",
		"procedure waste changeover",
	}
	// maxDF 0.7 of 3 chunks = 2.1, so the df=3 terms are cut while
	// "segregation" (df=2) survives both frequency bounds.
	v := FitVectorSpace(texts, AnalyzerWord, 1, 1, 2, 0.7)
	require.NotNil(t, v)
	assert.Equal(t, 1, v.VocabSize())
	assert.Empty(t, v.Transform("procedure"))
	assert.Empty(t, v.Transform("waste"))
	assert.NotEmpty(t, v.Transform("segregation"))
}

func TestFitVectorSpace_EmptyVocabReturnsNil(t *testing.T) {
	// One chunk: nothing can reach minDF 2.
	assert.Nil(t, FitVectorSpace([]string{"single chunk"}, AnalyzerWord, 1, 1, 2, 0.95))
	assert.Nil(t, FitVectorSpace(nil, AnalyzerWord, 1, 1, 2, 0.95))
}

func TestVectorSpace_RowsAreUnitLength(t *testing.T) {
	texts := []string{
		"waste disposal waste handling",
		"waste disposal records",
		"disposal handling notes extra",
	}
	v := FitVectorSpace(texts, AnalyzerWord, 1, 2, 2, 0.95)
	require.NotNil(t, v)

	for i := 0; i < v.Len(); i++ {
		var norm float64
		for _, w := range v.Row(i) {
			norm += w * w
		}
		assert.InDelta(t, 1.0, norm, 1e-9, "row %d", i)
	}
}

func TestVectorSpace_SimilaritiesFavorMatchingChunk(t *testing.T) {
	texts := []string{
		"waste segregation and disposal",
		"waste disposal records retention",
		"line changeover settings speed",
		"line speed calibration settings",
	}
	v := FitVectorSpace(texts, AnalyzerWord, 1, 3, 2, 0.95)
	require.NotNil(t, v)

	sims := v.Similarities(v.Transform("waste disposal"))
	require.Len(t, sims, 4)
	assert.Greater(t, sims[0], sims[2])
	assert.Greater(t, sims[1], sims[2])

	// Out-of-vocabulary query yields all zeros.
	for _, s := range v.Similarities(v.Transform("zzz qqq")) {
		assert.Zero(t, s)
	}
}

func TestVectorSpace_CharNgramsTolerateTypos(t *testing.T) {
	texts := []string{
		"changeover procedure for packaging line",
		"changeover checklist for packaging line",
		"waste segregation and disposal records",
		"waste retention and disposal records",
	}
	v := FitVectorSpace(texts, AnalyzerChar, 3, 5, 2, 0.95)
	require.NotNil(t, v)

	// "changeovr" shares most of its character grams with "changeover".
	sims := v.Similarities(v.Transform("changeovr packaging"))
	assert.Greater(t, sims[0], sims[2])
	assert.Greater(t, sims[1], sims[3])
}

func TestDot_Sparse(t *testing.T) {
	a := SparseVec{1: 0.6, 2: 0.8}
	b := SparseVec{2: 1.0}
	assert.InDelta(t, 0.8, Dot(a, b), 1e-9)
	assert.InDelta(t, Dot(a, b), Dot(b, a), 1e-9)
	assert.Zero(t, Dot(a, SparseVec{9: 1.0}))
}

func TestWordNgrams(t *testing.T) {
	grams := wordNgrams([]string{"a", "b", "c"}, 1, 3)
	assert.ElementsMatch(t, []string{"a", "b", "c", "a b", "b c", "a b c"}, grams)
	assert.Empty(t, wordNgrams([]string{"a"}, 2, 3))
}

func TestCharNgrams_RuneSafe(t *testing.T) {
	grams := charNgrams("déc", 3, 3)
	require.Len(t, grams, 1)
	assert.Equal(t, "déc", grams[0])
}
