package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	engerr "github.com/askveeva/deepsearch/internal/errors"
)

// Oracle scores query-passage pairs with a cross-encoder model. Scoring is
// the expensive, remote part of ranking; everything else in this package is
// local and cheap, so callers must treat an oracle failure as degradation,
// never as a request failure.
type Oracle interface {
	// Score returns one relevance score per passage, in passage order.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)

	// Name identifies the backing model for /health and logs.
	Name() string

	// Available reports whether the service is reachable right now.
	Available(ctx context.Context) bool
}

const (
	oracleTimeout   = 30 * time.Second
	oracleCacheSize = 4096
)

// HTTPOracle talks to a cross-encoder scoring service over HTTP. Requests
// are rate-limited and pair scores are cached, so repeated queries against
// a stable candidate pool stay cheap.
type HTTPOracle struct {
	url     string
	model   string
	client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, float64]
}

// NewHTTPOracle returns an oracle client for the scoring service at url.
func NewHTTPOracle(url, model string) *HTTPOracle {
	cache, _ := lru.New[string, float64](oracleCacheSize)
	return &HTTPOracle{
		url:     url,
		model:   model,
		client:  &http.Client{Timeout: oracleTimeout},
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 2),
		cache:   cache,
	}
}

// Name returns the configured model identifier.
func (o *HTTPOracle) Name() string {
	return o.model
}

// Available probes the service. Any HTTP response counts as reachable.
func (o *HTTPOracle) Available(ctx context.Context) bool {
	if o.url == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

type oracleScoreRequest struct {
	Model    string   `json:"model"`
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

type oracleScoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score returns one score per passage. Cached pairs are served locally;
// only the misses travel to the service.
func (o *HTTPOracle) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	scores := make([]float64, len(passages))
	var missIdx []int
	var missed []string
	for i, p := range passages {
		if s, ok := o.cache.Get(pairKey(query, p)); ok {
			scores[i] = s
		} else {
			missIdx = append(missIdx, i)
			missed = append(missed, p)
		}
	}
	if len(missed) == 0 {
		return scores, nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeOracleUnavailable, err)
	}

	body, err := json.Marshal(oracleScoreRequest{Model: o.model, Query: query, Passages: missed})
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeOracleUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeOracleUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeOracleUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, engerr.New(engerr.ErrCodeOracleUnavailable,
			fmt.Sprintf("oracle returned status %d: %s", resp.StatusCode, truncateBody(raw)), nil)
	}

	var parsed oracleScoreResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, engerr.Wrap(engerr.ErrCodeOracleUnavailable, err)
	}
	if len(parsed.Scores) != len(missed) {
		return nil, engerr.New(engerr.ErrCodeOracleUnavailable,
			fmt.Sprintf("oracle returned %d scores for %d passages", len(parsed.Scores), len(missed)), nil)
	}

	for j, i := range missIdx {
		scores[i] = parsed.Scores[j]
		o.cache.Add(pairKey(query, passages[i]), parsed.Scores[j])
	}
	return scores, nil
}

func pairKey(query, passage string) string {
	return query + "\x00" + passage
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}

var _ Oracle = (*HTTPOracle)(nil)
