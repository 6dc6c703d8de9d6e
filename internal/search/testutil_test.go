package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/askveeva/deepsearch/internal/config"
	"github.com/askveeva/deepsearch/internal/index"
	"github.com/askveeva/deepsearch/internal/store"
)

type seedDoc struct {
	id       string
	filename string
	chunks   []string
}

type seedSpan struct {
	docID      string
	chunkIndex int
	text       string
}

// newTestStore builds an in-memory corpus with the full schema.
func newTestStore(t *testing.T, docs []seedDoc, spans []seedSpan, syns [][2]string) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE askv_documents (id TEXT PRIMARY KEY, filename TEXT);
		CREATE TABLE askv_chunks (
			id INTEGER PRIMARY KEY, doc_id TEXT, chunk_index INTEGER,
			content TEXT, page INTEGER, section_title TEXT
		);
		CREATE TABLE askv_synonyms (term TEXT, alt_term TEXT, weight REAL);
		CREATE TABLE askv_spans (
			id INTEGER PRIMARY KEY, doc_id TEXT, chunk_index INTEGER,
			span_index INTEGER, text TEXT, page INTEGER, bbox TEXT
		);`)
	require.NoError(t, err)

	chunkID := 0
	for _, d := range docs {
		_, err = db.Exec(`INSERT INTO askv_documents VALUES (?, ?)`, d.id, d.filename)
		require.NoError(t, err)
		for ci, content := range d.chunks {
			chunkID++
			_, err = db.Exec(
				`INSERT INTO askv_chunks VALUES (?, ?, ?, ?, ?, ?)`,
				chunkID, d.id, ci, content, ci+1, fmt.Sprintf("Section %d", ci))
			require.NoError(t, err)
		}
	}
	for i, sp := range spans {
		_, err = db.Exec(
			`INSERT INTO askv_spans VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i+1, sp.docID, sp.chunkIndex, i, sp.text, 1, nil)
		require.NoError(t, err)
	}
	for _, s := range syns {
		_, err = db.Exec(`INSERT INTO askv_synonyms VALUES (?, ?, 1.0)`, s[0], s[1])
		require.NoError(t, err)
	}
	return store.NewWithDB(db)
}

// defaultDocs is a small FR/EN pharma-flavored corpus: one site-wide SOP,
// one line-specific document, one checklist.
func defaultDocs() []seedDoc {
	return []seedDoc{
		{
			id:       "doc-waste",
			filename: "QD-SOP-038904 Waste Disposal Procedure.pdf",
			chunks: []string{
				"waste segregation steps and disposal requirements per site procedure",
				"waste disposal records retention and responsibilities of operators",
				"definitions references and scope of the waste procedure",
			},
		},
		{
			id:       "doc-line",
			filename: "N2000-2 Line Changeover Settings.pdf",
			chunks: []string{
				"changeover settings and format parameters for packaging line",
				"changeover checklist and speed settings for the line operators",
			},
		},
		{
			id:       "doc-safety",
			filename: "Safety Checklist Packaging.pdf",
			chunks: []string{
				"safety checklist items and inspection frequencies for packaging",
			},
		},
	}
}

func defaultSpans() []seedSpan {
	return []seedSpan{
		{docID: "doc-waste", chunkIndex: 0, text: "segregate waste by category before disposal"},
		{docID: "doc-waste", chunkIndex: 0, text: "label every waste container"},
		{docID: "doc-waste", chunkIndex: 1, text: "keep disposal records for five years"},
		{docID: "doc-safety", chunkIndex: 0, text: "wear safety goggles during inspection"},
	}
}

func defaultSyns() [][2]string {
	return [][2]string{
		{"déchet", "waste"},
		{"checklist", "liste de contrôle"},
	}
}

// newTestEngine wires an engine over the default corpus and reindexes it.
func newTestEngine(t *testing.T, oracle Oracle, mutate func(*config.Config)) *Engine {
	t.Helper()
	st := newTestStore(t, defaultDocs(), defaultSpans(), defaultSyns())
	cfg := config.New()
	cfg.DatabaseURL = ":memory:"
	if mutate != nil {
		mutate(cfg)
	}
	e := New(cfg, st, oracle, nil)
	_, err := e.Reindex(context.Background())
	require.NoError(t, err)
	return e
}

// testSnapshot builds a snapshot straight from a seeded store.
func testSnapshot(t *testing.T, docs []seedDoc, spans []seedSpan) *index.Snapshot {
	t.Helper()
	st := newTestStore(t, docs, spans, nil)
	snap, err := index.NewBuilder(st, nil).Build(context.Background())
	require.NoError(t, err)
	return snap
}

// stubOracle returns canned scores keyed by passage substring, with a
// default for everything else. Fails when told to.
type stubOracle struct {
	scores   map[string]float64
	fallback float64
	fail     bool
	calls    int
}

func (s *stubOracle) Score(_ context.Context, _ string, passages []string) ([]float64, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("oracle down")
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = s.fallback
		for sub, sc := range s.scores {
			if sub != "" && containsFold(p, sub) {
				out[i] = sc
			}
		}
	}
	return out, nil
}

func (s *stubOracle) Name() string { return "stub" }

func (s *stubOracle) Available(_ context.Context) bool { return !s.fail }

func containsFold(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
