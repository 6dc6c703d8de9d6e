// Package config loads engine configuration: built-in defaults, then an
// optional YAML file, then DEEPSEARCH_* environment overrides, then
// validation. Every knob is optional; a zero-config process serves with the
// documented defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	// DatabaseURL is the DSN of the read-only corpus store. Empty means no
	// store is configured: the engine serves empty results and reports the
	// condition via /health instead of crashing.
	DatabaseURL string `yaml:"database_url"`

	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	// TopKDefault is the result count when a search request omits k.
	TopKDefault int `yaml:"topk_default"`

	// Deep toggles query expansion, sub-query aggregation and MMR
	// diversification. When off, a single scorer pass serves the request.
	Deep bool `yaml:"deep"`

	Rerank      RerankConfig   `yaml:"rerank"`
	MMR         MMRConfig      `yaml:"mmr"`
	Evidence    EvidenceConfig `yaml:"evidence"`
	PredictNext bool           `yaml:"predict_next"`

	// AutoIndex builds the first snapshot at startup instead of waiting for
	// the first /search or /reindex.
	AutoIndex bool `yaml:"auto_index"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// RerankConfig configures the external relevance oracle and the
// multi-objective blend.
type RerankConfig struct {
	// Enabled toggles oracle reranking. Oracle failure at request time
	// degrades to the simple blend regardless of this flag.
	Enabled bool `yaml:"enabled"`

	// URL is the oracle scoring endpoint. Empty disables the oracle even if
	// Enabled is true.
	URL string `yaml:"url"`

	// Model is the oracle model identifier, reported via /health.
	Model string `yaml:"model"`

	// Cand is the candidate pool size sent to the oracle.
	Cand int `yaml:"cand"`

	// Keep is the pool size retained after reranking.
	Keep int `yaml:"keep"`

	// BlendAlpha is the weight of the oracle score in the final blend; the
	// fused hybrid score carries over with weight (1-BlendAlpha)*0.10.
	BlendAlpha float64 `yaml:"blend_alpha"`
}

// MMRConfig configures the two diversification stages.
type MMRConfig struct {
	LambdaDoc   float64 `yaml:"lambda_doc"`
	LambdaChunk float64 `yaml:"lambda_chunk"`
	LimitDoc    int     `yaml:"limit_doc"`
	LimitChunk  int     `yaml:"limit_chunk"`
}

// EvidenceConfig configures the span-based evidence subsystem.
type EvidenceConfig struct {
	// UseSpans toggles the subsystem; it also degrades automatically when
	// the spans relation is absent from the store.
	UseSpans bool `yaml:"use_spans"`

	// SpansTop is the number of evidence fragments requested per document.
	SpansTop int `yaml:"spans_top"`
}

// New returns a Config populated with defaults. The numeric defaults are
// tuned for the production corpus and rarely need changing.
func New() *Config {
	return &Config{
		DatabaseURL: "",
		ListenAddr:  ":8088",
		TopKDefault: 60,
		Deep:        true,
		Rerank: RerankConfig{
			Enabled:    true,
			Model:      "bge-reranker-large",
			Cand:       150,
			Keep:       80,
			BlendAlpha: 0.70,
		},
		MMR: MMRConfig{
			LambdaDoc:   0.75,
			LambdaChunk: 0.70,
			LimitDoc:    40,
			LimitChunk:  24,
		},
		Evidence: EvidenceConfig{
			UseSpans: true,
			SpansTop: 3,
		},
		PredictNext: true,
		AutoIndex:   true,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if path is non-empty and the file exists), then env overrides, then
// validation.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML merges the YAML file at path over the current values. A missing
// file is not an error; a malformed one is.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies DEEPSEARCH_* environment variables. Env always
// wins over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEEPSEARCH_DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("DEEPSEARCH_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("DEEPSEARCH_TOPK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TopKDefault = n
		}
	}
	if v := os.Getenv("DEEPSEARCH_DEEP"); v != "" {
		c.Deep = parseBool(v)
	}
	if v := os.Getenv("DEEPSEARCH_RERANK"); v != "" {
		c.Rerank.Enabled = parseBool(v)
	}
	if v := os.Getenv("DEEPSEARCH_RERANK_URL"); v != "" {
		c.Rerank.URL = v
	}
	if v := os.Getenv("DEEPSEARCH_RERANK_MODEL"); v != "" {
		c.Rerank.Model = v
	}
	if v := os.Getenv("DEEPSEARCH_RERANK_CAND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rerank.Cand = n
		}
	}
	if v := os.Getenv("DEEPSEARCH_RERANK_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rerank.Keep = n
		}
	}
	if v := os.Getenv("DEEPSEARCH_RERANK_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Rerank.BlendAlpha = f
		}
	}
	if v := os.Getenv("DEEPSEARCH_MMR_LAMBDA_DOC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MMR.LambdaDoc = f
		}
	}
	if v := os.Getenv("DEEPSEARCH_MMR_LAMBDA_CHUNK"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MMR.LambdaChunk = f
		}
	}
	if v := os.Getenv("DEEPSEARCH_MMR_LIMIT_DOC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MMR.LimitDoc = n
		}
	}
	if v := os.Getenv("DEEPSEARCH_MMR_LIMIT_CHUNK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MMR.LimitChunk = n
		}
	}
	if v := os.Getenv("DEEPSEARCH_USE_SPANS"); v != "" {
		c.Evidence.UseSpans = parseBool(v)
	}
	if v := os.Getenv("DEEPSEARCH_SPANS_TOP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Evidence.SpansTop = n
		}
	}
	if v := os.Getenv("DEEPSEARCH_PREDICT_NEXT"); v != "" {
		c.PredictNext = parseBool(v)
	}
	if v := os.Getenv("DEEPSEARCH_AUTOINDEX"); v != "" {
		c.AutoIndex = parseBool(v)
	}
	if v := os.Getenv("DEEPSEARCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DEEPSEARCH_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
}

// parseBool treats "0", "false" and "no" (any case) as false, everything
// else as true. Operators set flags like DEEPSEARCH_RERANK=1.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no":
		return false
	}
	return true
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.TopKDefault <= 0 {
		return fmt.Errorf("topk_default must be positive, got %d", c.TopKDefault)
	}
	if c.Rerank.BlendAlpha < 0 || c.Rerank.BlendAlpha > 1 {
		return fmt.Errorf("rerank.blend_alpha must be in [0,1], got %g", c.Rerank.BlendAlpha)
	}
	if c.Rerank.Cand <= 0 || c.Rerank.Keep <= 0 {
		return fmt.Errorf("rerank.cand and rerank.keep must be positive")
	}
	if c.MMR.LambdaDoc < 0 || c.MMR.LambdaDoc > 1 || c.MMR.LambdaChunk < 0 || c.MMR.LambdaChunk > 1 {
		return fmt.Errorf("mmr lambdas must be in [0,1]")
	}
	if c.MMR.LimitDoc <= 0 || c.MMR.LimitChunk <= 0 {
		return fmt.Errorf("mmr limits must be positive")
	}
	if c.Evidence.SpansTop <= 0 {
		return fmt.Errorf("evidence.spans_top must be positive, got %d", c.Evidence.SpansTop)
	}
	return nil
}
