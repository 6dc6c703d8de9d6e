package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExpander(t *testing.T) *expander {
	t.Helper()
	return newExpander(newTestStore(t, defaultDocs(), nil, defaultSyns()), nil)
}

func TestGenerateSubqueries_CodeVariant(t *testing.T) {
	exp := newTestExpander(t)
	subs := generateSubqueries(context.Background(), exp, "procédure SOP 38904", nil)

	assert.Contains(t, subs, "QD-SOP-038904")
	assert.Equal(t, "procédure SOP 38904", subs[0])
}

func TestGenerateSubqueries_HeadTrimForLongQueries(t *testing.T) {
	exp := newTestExpander(t)
	long := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu"
	subs := generateSubqueries(context.Background(), exp, long, nil)

	assert.Contains(t, subs, "alpha beta gamma delta epsilon zeta")
}

func TestGenerateSubqueries_BilingualSwap(t *testing.T) {
	exp := newTestExpander(t)
	subs := generateSubqueries(context.Background(), exp, "nettoyage de la ligne", nil)

	var swapped bool
	for _, s := range subs {
		if strings.Contains(s, "cleaning sanitation washdown") {
			swapped = true
		}
	}
	assert.True(t, swapped)
}

func TestGenerateSubqueries_CapAndDeterminism(t *testing.T) {
	exp := newTestExpander(t)
	q := "procédure sécurité maintenance nettoyage validation format déchet alpha beta gamma delta"
	next := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"}

	first := generateSubqueries(context.Background(), exp, q, next)
	second := generateSubqueries(context.Background(), exp, q, next)

	assert.LessOrEqual(t, len(first), subqueryCap)
	assert.Equal(t, first, second)
}

func TestGenerateSubqueries_NextTermsInjected(t *testing.T) {
	exp := newTestExpander(t)
	subs := generateSubqueries(context.Background(), exp, "short", []string{"records"})
	assert.Contains(t, subs, "short records")
}

func TestLinspace(t *testing.T) {
	w := linspace(1.0, 0.6, 5)
	require.Len(t, w, 5)
	assert.InDelta(t, 1.0, w[0], 1e-9)
	assert.InDelta(t, 0.9, w[1], 1e-9)
	assert.InDelta(t, 0.6, w[4], 1e-9)

	assert.Equal(t, []float64{1.0}, linspace(1.0, 0.6, 1))
}

func TestAggregateOverSubqueries_OriginalQueryDominates(t *testing.T) {
	snap := testSnapshot(t, defaultDocs(), nil)
	exp := newTestExpander(t)

	scores, err := aggregateOverSubqueries(context.Background(), snap, exp, "waste disposal", "", "", nil)
	require.NoError(t, err)
	require.Len(t, scores, snap.Len())

	// The aggregated ranking still puts the waste document on top.
	assert.Equal(t, "doc-waste", snap.Chunks[argmax(scores)].DocID)
}
