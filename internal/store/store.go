// Package store provides read-only access to the external corpus store:
// four relations (askv_documents, askv_chunks, askv_synonyms, askv_spans)
// owned by the ingestion side of the system. The engine never writes.
//
// Optional columns (chunk page/section_title, span page/bbox) and the
// optional spans relation are detected by introspection at load time, so a
// partially provisioned schema degrades capabilities instead of failing.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	engerr "github.com/askveeva/deepsearch/internal/errors"
)

// Store wraps the read-only corpus database.
type Store struct {
	db *sql.DB
}

// Open connects to the corpus store. An empty DSN yields an unconfigured
// store rather than an error: the engine starts and serves empty results,
// and only an explicit rebuild surfaces the missing configuration. The
// connection is lazy; reachability is observed on first use, not here.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return &Store{}, nil
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle. Used by tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Configured reports whether a DSN was provided at open time.
func (s *Store) Configured() bool {
	return s.db != nil
}

// unconfigured is the error every accessor returns before a DSN is set.
func (s *Store) unconfigured() error {
	return engerr.New(engerr.ErrCodeStoreUnconfigured, "no corpus store configured", nil)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return s.unconfigured()
	}
	if err := s.db.PingContext(ctx); err != nil {
		return engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	return nil
}

// TableExists reports whether a relation is present.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	if s.db == nil {
		return false, s.unconfigured()
	}
	var n string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	return true, nil
}

// columnSet returns the column names of a relation.
func (s *Store) columnSet(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// ChunkLoad is the result of LoadChunks: all chunks joined with their
// documents, plus which optional columns the schema carries.
type ChunkLoad struct {
	Chunks   []Chunk
	HasPage  bool
	HasTitle bool
}

// LoadChunks reads every chunk joined with its document, ordered by chunk
// id for deterministic snapshots.
func (s *Store) LoadChunks(ctx context.Context) (*ChunkLoad, error) {
	if s.db == nil {
		return nil, s.unconfigured()
	}
	cols, err := s.columnSet(ctx, "askv_chunks")
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}

	load := &ChunkLoad{
		HasPage:  cols["page"],
		HasTitle: cols["section_title"],
	}

	sel := "c.id, c.doc_id, c.chunk_index, c.content, d.filename"
	if load.HasPage {
		sel += ", c.page"
	}
	if load.HasTitle {
		sel += ", c.section_title"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM askv_chunks c
		JOIN askv_documents d ON d.id = c.doc_id
		ORDER BY c.id ASC`, sel)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c       Chunk
			content sql.NullString
			page    sql.NullInt64
			title   sql.NullString
		)
		dest := []any{&c.ID, &c.DocID, &c.ChunkIndex, &content, &c.Filename}
		if load.HasPage {
			dest = append(dest, &page)
		}
		if load.HasTitle {
			dest = append(dest, &title)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
		}
		c.Content = content.String
		if page.Valid {
			p := int(page.Int64)
			c.Page = &p
		}
		c.SectionTitle = title.String
		load.Chunks = append(load.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	return load, nil
}

// LoadSpans reads the optional evidence spans, or (nil, nil) when the
// relation is absent.
func (s *Store) LoadSpans(ctx context.Context) ([]Span, error) {
	if s.db == nil {
		return nil, s.unconfigured()
	}
	exists, err := s.TableExists(ctx, "askv_spans")
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	cols, err := s.columnSet(ctx, "askv_spans")
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	hasPage := cols["page"]
	hasBBox := cols["bbox"]

	sel := "id, doc_id, chunk_index, span_index, text"
	if hasPage {
		sel += ", page"
	}
	if hasBBox {
		sel += ", bbox"
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM askv_spans ORDER BY id ASC`, sel))
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	defer rows.Close()

	var spans []Span
	for rows.Next() {
		var (
			sp   Span
			txt  sql.NullString
			page sql.NullInt64
			bbox sql.NullString
		)
		dest := []any{&sp.ID, &sp.DocID, &sp.ChunkIndex, &sp.SpanIndex, &txt}
		if hasPage {
			dest = append(dest, &page)
		}
		if hasBBox {
			dest = append(dest, &bbox)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
		}
		sp.Text = txt.String
		if page.Valid {
			p := int(page.Int64)
			sp.Page = &p
		}
		if bbox.Valid && bbox.String != "" {
			// bbox is stored as a JSON float array; a malformed value is
			// dropped rather than failing the load.
			var box []float64
			if err := json.Unmarshal([]byte(bbox.String), &box); err == nil {
				sp.BBox = box
			}
		}
		spans = append(spans, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreUnreachable, err)
	}
	return spans, nil
}

// SynonymsForTokens returns every synonym row whose term or alt_term
// matches one of the (lowercased) query tokens. Capped at 1000 rows.
// Failures are transient: the caller degrades to "no expansion".
func (s *Store) SynonymsForTokens(ctx context.Context, tokens []string) ([]SynonymEntry, error) {
	if s.db == nil {
		return nil, s.unconfigured()
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tokens)), ",")
	query := fmt.Sprintf(`
		SELECT term, alt_term, COALESCE(weight, 1.0)
		FROM askv_synonyms
		WHERE LOWER(term) IN (%s) OR LOWER(alt_term) IN (%s)
		LIMIT 1000`, placeholders, placeholders)

	args := make([]any, 0, 2*len(tokens))
	for i := 0; i < 2; i++ {
		for _, t := range tokens {
			args = append(args, strings.ToLower(t))
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreTransient, err)
	}
	defer rows.Close()

	var out []SynonymEntry
	for rows.Next() {
		var e SynonymEntry
		if err := rows.Scan(&e.Term, &e.AltTerm, &e.Weight); err != nil {
			return nil, engerr.Wrap(engerr.ErrCodeStoreTransient, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeStoreTransient, err)
	}
	return out, nil
}

// SynonymCount returns the synonym table size, for /health. A failure
// means the table is unreachable; callers report "unknown".
func (s *Store) SynonymCount(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, s.unconfigured()
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM askv_synonyms`).Scan(&n)
	if err != nil {
		return 0, engerr.Wrap(engerr.ErrCodeStoreTransient, err)
	}
	return n, nil
}
