package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGeneralFilename(t *testing.T) {
	assert.True(t, isGeneralFilename("QD-SOP-038904 Waste Disposal Procedure.pdf"))
	assert.True(t, isGeneralFilename("Site Waste Policy.pdf"))

	// Line numbers disqualify even SOP-titled files.
	assert.False(t, isGeneralFilename("SOP 9102 Line Cleaning.pdf"))
	assert.False(t, isGeneralFilename("N2000-2 Changeover.pdf"))
	assert.False(t, isGeneralFilename("random notes.txt"))
}

func TestIsSpecificFilename(t *testing.T) {
	assert.True(t, isSpecificFilename("N2000-2 Line Changeover.pdf"))
	assert.True(t, isSpecificFilename("Vignetteuse settings.pdf"))
	assert.True(t, isSpecificFilename("9102 maintenance.pdf"))
	assert.False(t, isSpecificFilename("Waste Policy.pdf"))
}

func TestIntentFromQuery(t *testing.T) {
	global, sop := intentFromQuery("procédure globale de gestion des déchets")
	assert.True(t, global)
	assert.True(t, sop)

	global, sop = intentFromQuery("réglages vitesse ligne 2")
	assert.False(t, global)
	assert.False(t, sop)

	global, sop = intentFromQuery("site policy for waste")
	assert.True(t, global)
	assert.False(t, sop)
}

func TestGuessLang(t *testing.T) {
	assert.Equal(t, "fr", guessLang("quelle est la procédure de gestion des déchets"))
	assert.Equal(t, "en", guessLang("what is the waste checklist and the safety procedure"))

	// Ties and short queries default to FR.
	assert.Equal(t, "fr", guessLang("waste"))
	assert.Equal(t, "fr", guessLang(""))
}

func TestQueryHasCode(t *testing.T) {
	assert.True(t, queryHasCode("SOP 38904 disposal"))
	assert.True(t, queryHasCode("réglages N2000-2"))
	assert.True(t, queryHasCode("où est l'IDR"))
	assert.False(t, queryHasCode("waste disposal steps"))
}

func TestCriteriaForLang(t *testing.T) {
	assert.Contains(t, criteriaForLang("fr"), "responsabilités")
	assert.Contains(t, criteriaForLang("en"), "responsibilities")
	assert.Len(t, criteriaForLang("fr"), len(criteriaForLang("en")))
}

func TestPredictNextTerms(t *testing.T) {
	terms := predictNextTerms("comment gérer les déchets", "", 5)
	assert.Len(t, terms, 5)

	// Terms already present in the question are skipped.
	for _, tm := range predictNextTerms("help how to records", "", 10) {
		assert.NotEqual(t, "help", tm)
		assert.NotEqual(t, "how to", tm)
		assert.NotEqual(t, "records", tm)
	}

	assert.Empty(t, predictNextTerms("x", "", 0))
}
