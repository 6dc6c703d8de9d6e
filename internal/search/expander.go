package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/askveeva/deepsearch/internal/store"
	"github.com/askveeva/deepsearch/internal/text"
)

const synCacheSize = 512

// expander widens queries with domain synonyms from the store, falling
// back to the built-in FR/EN pairs when the table has nothing. Synonym
// lookups are cached per token set; store failures degrade to no expansion.
type expander struct {
	store *store.Store
	cache *lru.Cache[string, []store.SynonymEntry]
	log   *slog.Logger
}

func newExpander(s *store.Store, log *slog.Logger) *expander {
	if log == nil {
		log = slog.Default()
	}
	cache, _ := lru.New[string, []store.SynonymEntry](synCacheSize)
	return &expander{store: s, cache: cache, log: log}
}

// synonymsFor returns the synonym rows matching any of the tokens. A store
// failure is logged once per call and treated as an empty result.
func (e *expander) synonymsFor(ctx context.Context, tokens []string) []store.SynonymEntry {
	if len(tokens) == 0 || e.store == nil {
		return nil
	}
	key := strings.Join(tokens, " ")
	if rows, ok := e.cache.Get(key); ok {
		return rows
	}
	rows, err := e.store.SynonymsForTokens(ctx, tokens)
	if err != nil {
		e.log.Warn("synonym lookup failed, continuing without expansion", "error", err)
		return nil
	}
	e.cache.Add(key, rows)
	return rows
}

// Expand appends synonym terms absent from the query. DB synonyms win;
// the bilingual defaults apply only when the table yields nothing.
func (e *expander) Expand(ctx context.Context, rawQ string) string {
	n := text.Normalize(rawQ)
	toks := text.Tokenize(rawQ)

	var extras []string
	for _, syn := range e.synonymsFor(ctx, toks) {
		if syn.AltTerm != "" && !strings.Contains(n, strings.ToLower(syn.AltTerm)) {
			extras = append(extras, syn.AltTerm)
		}
	}

	if len(extras) == 0 {
		for _, p := range bilingualDefaults {
			if strings.Contains(n, p.FR) && !strings.Contains(n, p.EN) {
				extras = append(extras, p.EN)
			} else if strings.Contains(n, p.EN) && !strings.Contains(n, p.FR) {
				extras = append(extras, p.FR)
			}
		}
	}

	if len(extras) == 0 {
		return rawQ
	}
	sort.Strings(extras)
	uniq := make([]string, 0, len(extras))
	for _, x := range extras {
		if len(uniq) == 0 || x != uniq[len(uniq)-1] {
			uniq = append(uniq, x)
		}
	}
	return rawQ + " " + strings.Join(uniq, " ")
}
