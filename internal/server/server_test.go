package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/askveeva/deepsearch/internal/config"
	"github.com/askveeva/deepsearch/internal/search"
	"github.com/askveeva/deepsearch/internal/store"
)

func newTestServer(t *testing.T, seed bool) *Server {
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

	if seed {
		_, err = db.Exec(`
			INSERT INTO askv_documents VALUES
				('doc-1', 'QD-SOP-038904 Waste Disposal Procedure.pdf'),
				('doc-2', 'N2000-2 Line Changeover.pdf');
			INSERT INTO askv_chunks VALUES
				(1, 'doc-1', 0, 'waste segregation steps and disposal requirements', 3, 'Scope'),
				(2, 'doc-1', 1, 'waste disposal records and responsibilities', 4, NULL),
				(3, 'doc-2', 0, 'changeover settings for the packaging line', 1, NULL);
			INSERT INTO askv_spans VALUES
				(1, 'doc-1', 0, 0, 'segregate waste by category', 3, NULL);`)
		require.NoError(t, err)
	}

	cfg := config.New()
	cfg.DatabaseURL = ":memory:"
	engine := search.New(cfg, store.NewWithDB(db), nil, nil)
	_, err = engine.Reindex(context.Background())
	require.NoError(t, err)
	return New(cfg, engine, nil)
}

// newWideTestServer seeds n single-chunk documents, enough to observe the
// k clamping floor.
func newWideTestServer(t *testing.T, n int) *Server {
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
		CREATE TABLE askv_synonyms (term TEXT, alt_term TEXT, weight REAL);`)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		_, err = db.Exec(`INSERT INTO askv_documents VALUES (?, ?)`,
			docID, fmt.Sprintf("Waste Area %d Procedure.pdf", i))
		require.NoError(t, err)
		_, err = db.Exec(
			`INSERT INTO askv_chunks (id, doc_id, chunk_index, content) VALUES (?, ?, 0, ?)`,
			i+1, docID, fmt.Sprintf("waste disposal instructions for area %d", i))
		require.NoError(t, err)
	}

	cfg := config.New()
	cfg.DatabaseURL = ":memory:"
	engine := search.New(cfg, store.NewWithDB(db), nil, nil)
	_, err = engine.Reindex(context.Background())
	require.NoError(t, err)
	return New(cfg, engine, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var h search.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.True(t, h.OK)
	assert.Equal(t, 3, h.Chunks)
	assert.Equal(t, 1, h.Spans)
}

func TestReindexEndpoint(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/reindex", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reindexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 3, resp.Docs)
	assert.Equal(t, 1, resp.Spans)
}

func TestSearchEndpoint(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/search",
		map[string]any{"query": "SOP 38904 waste disposal"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, "doc-1", resp.Items[0].DocID)
	assert.Contains(t, resp.Items[0].Codes, "QD-SOP-038904")
	assert.NotEmpty(t, resp.AnticipatedTerms)
}

func TestSearchEndpoint_KClamped(t *testing.T) {
	srv := newTestServer(t, true)

	// Too small: raised to the floor (still more than the corpus holds).
	small := 5
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/search",
		map[string]any{"query": "waste", "k": small})
	require.Equal(t, http.StatusOK, rec.Code)

	// Too large: capped, not rejected.
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/search",
		map[string]any{"query": "waste", "k": 10000})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.LessOrEqual(t, len(resp.Items), 200)
}

func TestSearchEndpoint_KFloorYieldsTenItems(t *testing.T) {
	// Twelve matching chunks exist, so the floored k is actually observable:
	// asking for 5 returns exactly 10.
	srv := newWideTestServer(t, 12)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/search",
		map[string]any{"query": "waste disposal", "k": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 10)
}

func TestSearchEndpoint_BadInput(t *testing.T) {
	srv := newTestServer(t, true)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/search", map[string]any{"query": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "ERR_INVALID_INPUT", resp.Code)
}

func TestSearchEndpoint_EmptyIndex(t *testing.T) {
	srv := newTestServer(t, false)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/search", map[string]any{"query": "anything"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestCompareEndpoint(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/compare", map[string]any{
		"topic":   "waste disposal",
		"doc_ids": []string{"doc-1", "doc-2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp compareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.NotEmpty(t, resp.Criteria)
	assert.Len(t, resp.Matrix, len(resp.Criteria))
	assert.Contains(t, resp.Answerability, "doc-1")
}

func TestCompareEndpoint_EmptyIndex(t *testing.T) {
	srv := newTestServer(t, false)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/compare", map[string]any{
		"topic":   "retention",
		"doc_ids": []string{"doc-1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp compareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, search.AnswerNR, resp.Answerability["doc-1"])
}

func TestCompareEndpoint_Validation(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/compare",
		map[string]any{"topic": "x", "doc_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, true)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
